package metrics

import "github.com/simstream/go-simstream/pkg/interfaces"

// Noop 丢弃所有指标
type Noop struct{}

var _ interfaces.Reporter = Noop{}

func (Noop) StreamOpened() {}
func (Noop) StreamClosed() {}
func (Noop) SessionOpened() {}
func (Noop) SessionClosed(interfaces.CloseReason) {}
func (Noop) HandshakeRejected(string) {}
func (Noop) AcceptError() {}
func (Noop) FrameSent(int) {}
func (Noop) FrameDropped() {}
func (Noop) FrameReceived(int) {}
func (Noop) ConnectorClosed(interfaces.CloseReason) {}

// OrNoop r 为 nil 时返回 Noop
func OrNoop(r interfaces.Reporter) interfaces.Reporter {
	if r == nil {
		return Noop{}
	}
	return r
}
