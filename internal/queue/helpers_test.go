package queue

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/soltixdb/crimecast/internal/models"
)

// setupTestNATS creates an embedded NATS server with JetStream for testing
func setupTestNATS(t *testing.T) (*server.Server, string) {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // Random port
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, ns.ClientURL()
}

func testRecords() []models.ForecastRecord {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	return []models.ForecastRecord{
		{ForecastDate: day, PredictedCount: 0.875, District: "A", Category: "ROBO"},
		{ForecastDate: day, PredictedCount: 2, District: "B", Category: "ROBO"},
		{ForecastDate: day.AddDate(0, 0, 1), PredictedCount: 1.25, District: "C", Category: "FRAUDE"},
	}
}
