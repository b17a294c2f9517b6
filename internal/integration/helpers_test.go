//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/store-locator/internal/adapter/nominatim"
	"github.com/couchcryptid/store-locator/internal/adapter/upstream"
	"github.com/couchcryptid/store-locator/internal/cache"
	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/locator"
	"github.com/couchcryptid/store-locator/internal/observability"
	"github.com/couchcryptid/store-locator/internal/throttle"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the test and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("store-locator-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	brokers, err := c.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// fakeNominatim answers every search containing "le van sy" with one
// candidate and everything else with no candidates.
func fakeNominatim(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := strings.ToLower(r.URL.Query().Get("q"))
		if r.URL.Path == "/search" && strings.Contains(q, "le van sy") {
			_, _ = w.Write([]byte(`[{"place_id": 77, "lat": "10.7934", "lon": "106.6789",
				"display_name": "236 Le Van Sy, Tan Binh, Thanh pho Ho Chi Minh, Viet Nam"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newLocator builds a locator that geocodes through the fake provider with
// an in-memory cache.
func newLocator(t *testing.T, metrics *observability.Metrics) *locator.Service {
	t.Helper()
	srv := fakeNominatim(t)
	up := upstream.NewClient(5*time.Second, throttle.NewGate(0), "test@example.com", metrics, discardLogger())
	provider := nominatim.NewClient(up, srv.URL, "vn")

	c := cache.New(cache.NewMemoryStore(128), discardLogger(), metrics)
	return locator.New([]domain.Provider{provider}, nil, catalog.NewMemory(nil), c,
		locator.DefaultOptions(), metrics, discardLogger())
}
