package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(gateDenials)
}

var gateDenials = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gate_denials_total",
		Help: "Requests denied before the model call, per gate and model.",
	},
	[]string{"gate", "model"}, // gate: total_limit | premium_limit | quota
)

func IncGateDenial(gate, model string) {
	gateDenials.WithLabelValues(norm(gate), norm(model)).Inc()
}
