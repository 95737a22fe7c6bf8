package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "application_transitions_total",
		Help: "Application status transitions applied.",
	}, []string{"from", "to"})

	transitionRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "application_transitions_rejected_total",
		Help: "Status transitions rejected by the state machine.",
	}, []string{"reason"})

	documentsAttachedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "documents_attached_total",
		Help: "Documents attached to applications.",
	})

	documentBatchRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "document_batches_rejected_total",
		Help: "Document batches rejected before persistence.",
	}, []string{"reason"})

	evaluationChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evaluation_checks_total",
		Help: "Evaluation check decisions recorded.",
	}, []string{"check", "status"})

	tokenVerifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "client_token_verifications_total",
		Help: "Anonymous link token verification attempts.",
	}, []string{"outcome"})
)

// IncTransition records a successful status transition.
func IncTransition(from, to string) {
	transitionsTotal.WithLabelValues(from, to).Inc()
}

// IncTransitionRejected records a rejected transition attempt.
func IncTransitionRejected(reason string) {
	transitionRejectedTotal.WithLabelValues(reason).Inc()
}

// AddDocumentsAttached records successfully attached documents.
func AddDocumentsAttached(n int) {
	documentsAttachedTotal.Add(float64(n))
}

// IncDocumentBatchRejected records a rejected upload batch.
func IncDocumentBatchRejected(reason string) {
	documentBatchRejectedTotal.WithLabelValues(reason).Inc()
}

// IncEvaluationCheck records an evaluation check decision.
func IncEvaluationCheck(check, status string) {
	evaluationChecksTotal.WithLabelValues(check, status).Inc()
}

// IncTokenVerify records a token verification outcome ("ok", "bad_password",
// "unknown_token").
func IncTokenVerify(outcome string) {
	tokenVerifyTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes metrics in Prometheus format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
