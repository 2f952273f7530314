package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/simstream/go-simstream/pkg/interfaces"
)

// Prometheus 基于 Prometheus 的 Reporter
type Prometheus struct {
	streams          prometheus.Gauge
	sessions         prometheus.Gauge
	sessionsClosed   *prometheus.CounterVec
	handshakeRejects *prometheus.CounterVec
	acceptErrors     prometheus.Counter
	framesSent       prometheus.Counter
	bytesSent        prometheus.Counter
	framesDropped    prometheus.Counter
	framesReceived   prometheus.Counter
	bytesReceived    prometheus.Counter
	connectorsClosed *prometheus.CounterVec
}

var _ interfaces.Reporter = (*Prometheus)(nil)

// NewPrometheus 创建并注册全部指标
//
// reg 为 nil 时不注册，仅用于测试或自行收集。
// 同名指标已注册时复用已有的收集器，服务端与客户端可以共享一个 Registry。
func NewPrometheus(namespace string, reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streams",
			Help:      "Number of registered streams.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Number of open subscriber sessions.",
		}),
		sessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Closed subscriber sessions by reason.",
		}, []string{"reason"}),
		handshakeRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_rejected_total",
			Help:      "Connections rejected during handshake by reason.",
		}, []string{"reason"}),
		acceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Failed accept attempts.",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Data frames written to subscribers.",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sent_bytes_total",
			Help:      "Payload bytes written to subscribers.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Data frames dropped because the previous write was still in flight.",
		}),
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Data frames received by connectors.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "received_bytes_total",
			Help:      "Payload bytes received by connectors.",
		}),
		connectorsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connectors_closed_total",
			Help:      "Closed client connectors by reason.",
		}, []string{"reason"}),
	}

	if reg == nil {
		return p, nil
	}

	var err error
	if p.streams, err = register(reg, p.streams); err != nil {
		return nil, err
	}
	if p.sessions, err = register(reg, p.sessions); err != nil {
		return nil, err
	}
	if p.sessionsClosed, err = register(reg, p.sessionsClosed); err != nil {
		return nil, err
	}
	if p.handshakeRejects, err = register(reg, p.handshakeRejects); err != nil {
		return nil, err
	}
	if p.acceptErrors, err = register(reg, p.acceptErrors); err != nil {
		return nil, err
	}
	if p.framesSent, err = register(reg, p.framesSent); err != nil {
		return nil, err
	}
	if p.bytesSent, err = register(reg, p.bytesSent); err != nil {
		return nil, err
	}
	if p.framesDropped, err = register(reg, p.framesDropped); err != nil {
		return nil, err
	}
	if p.framesReceived, err = register(reg, p.framesReceived); err != nil {
		return nil, err
	}
	if p.bytesReceived, err = register(reg, p.bytesReceived); err != nil {
		return nil, err
	}
	if p.connectorsClosed, err = register(reg, p.connectorsClosed); err != nil {
		return nil, err
	}
	return p, nil
}

// register 注册 c，已存在同名收集器时返回已有的
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

func (p *Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.streams, p.sessions, p.sessionsClosed, p.handshakeRejects, p.acceptErrors,
		p.framesSent, p.bytesSent, p.framesDropped,
		p.framesReceived, p.bytesReceived, p.connectorsClosed,
	}
}

// Unregister 从 reg 注销全部指标
func (p *Prometheus) Unregister(reg prometheus.Registerer) {
	for _, c := range p.collectors() {
		reg.Unregister(c)
	}
}

func (p *Prometheus) StreamOpened() { p.streams.Inc() }
func (p *Prometheus) StreamClosed() { p.streams.Dec() }

func (p *Prometheus) SessionOpened() { p.sessions.Inc() }

func (p *Prometheus) SessionClosed(reason interfaces.CloseReason) {
	p.sessions.Dec()
	p.sessionsClosed.WithLabelValues(string(reason)).Inc()
}

func (p *Prometheus) HandshakeRejected(reason string) {
	p.handshakeRejects.WithLabelValues(reason).Inc()
}

func (p *Prometheus) AcceptError() { p.acceptErrors.Inc() }

func (p *Prometheus) FrameSent(bytes int) {
	p.framesSent.Inc()
	p.bytesSent.Add(float64(bytes))
}

func (p *Prometheus) FrameDropped() { p.framesDropped.Inc() }

func (p *Prometheus) FrameReceived(bytes int) {
	p.framesReceived.Inc()
	p.bytesReceived.Add(float64(bytes))
}

func (p *Prometheus) ConnectorClosed(reason interfaces.CloseReason) {
	p.connectorsClosed.WithLabelValues(string(reason)).Inc()
}
