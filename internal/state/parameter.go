package state

// Parameter is a named trainable tensor with an optional gradient.
type Parameter struct {
	name   string
	tensor *Tensor
	grad   *Tensor
}

func NewParameter(name string, t *Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

func (p *Parameter) Name() string { return p.name }

func (p *Parameter) Tensor() *Tensor { return p.tensor }

// Grad returns nil until a gradient has been set.
func (p *Parameter) Grad() *Tensor { return p.grad }

func (p *Parameter) SetGrad(g *Tensor) { p.grad = g }

func (p *Parameter) ZeroGrad() { p.grad = nil }

// To moves the parameter and its gradient to device.
func (p *Parameter) To(device Device) {
	p.tensor.Device = device
	if p.grad != nil {
		p.grad.Device = device
	}
}
