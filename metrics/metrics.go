package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Posts    prometheus.Counter
	Comments prometheus.Counter
	Follows  prometheus.Counter
}

// New registers the yatube collectors on a fresh registry so tests can build many.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yatube",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		Posts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yatube",
			Name:      "posts_created_total",
			Help:      "Posts created.",
		}),
		Comments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yatube",
			Name:      "comments_created_total",
			Help:      "Comments created.",
		}),
		Follows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yatube",
			Name:      "follows_created_total",
			Help:      "Follow edges created.",
		}),
	}
	reg.MustRegister(
		m.Requests, m.Posts, m.Comments, m.Follows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware counts every request under its route pattern, "unmatched" for 404s.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
