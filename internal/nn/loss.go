package nn

import "github.com/samcharles93/expkit/internal/state"

// ContrastiveLoss holds only hyperparameters, so the checkpoint store skips it.
type ContrastiveLoss struct {
	PosMargin float64
	NegMargin float64
}

func (*ContrastiveLoss) Parameters() []*state.Parameter { return nil }

func (*ContrastiveLoss) StateDict() state.StateDict { return state.StateDict{} }

func (*ContrastiveLoss) LoadStateDict(sd state.StateDict) error { return state.CheckKeys(sd) }

// ProxyAnchorLoss learns one proxy embedding per class; the proxies are
// parameters and get checkpointed like any layer.
type ProxyAnchorLoss struct {
	Alpha   float64
	Margin  float64
	proxies *state.Parameter
}

func NewProxyAnchorLoss(numClasses, embeddingSize int) *ProxyAnchorLoss {
	return &ProxyAnchorLoss{
		Alpha:   32,
		Margin:  0.1,
		proxies: state.NewParameter("proxies", state.Zeros(numClasses, embeddingSize)),
	}
}

func (l *ProxyAnchorLoss) Parameters() []*state.Parameter {
	return []*state.Parameter{l.proxies}
}

func (l *ProxyAnchorLoss) StateDict() state.StateDict {
	return state.StateDict{"proxies": l.proxies.Tensor()}
}

func (l *ProxyAnchorLoss) LoadStateDict(sd state.StateDict) error {
	if err := state.CheckKeys(sd, "proxies"); err != nil {
		return err
	}
	return l.proxies.Tensor().CopyFrom(sd["proxies"])
}
