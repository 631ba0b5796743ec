package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SodiumWatch/pkg/model"
)

func runServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestEncode(t *testing.T) {
	b, err := encode([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encode("text")
	require.NoError(t, err)
	assert.Equal(t, "text", string(b))

	b, err = encode(MealRecorded{MealID: "m1", TotalMG: 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"meal_id":"m1","user_id":"","date":"","sodium_mg":0,"total_mg":10,"percent_of_limit":0,"source":"","recorded_at":"0001-01-01T00:00:00Z"}`, string(b))

	_, err = encode(make(chan int))
	assert.Error(t, err)
}

func TestAlertSubject(t *testing.T) {
	assert.Equal(t, "sodium.alerts.danger", AlertSubject(model.SeverityDanger))
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(SubjectMealRecorded, "x"))
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	ns := runServer(t)

	client, err := NewNATSClient(ns.ClientURL(), "test", "SODIUM_TEST", zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()
	assert.True(t, client.IsConnected())

	got := make(chan AlertChanged, 1)
	err = client.Subscribe("tail-test", SubjectAll, func(subject string, data []byte) error {
		var ev AlertChanged
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		assert.Equal(t, "sodium.alerts.warning", subject)
		got <- ev
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, client.Publish(AlertSubject(model.SeverityWarning), AlertChanged{AlertID: "a1", Severity: "warning", Action: "created"}))

	select {
	case ev := <-got:
		assert.Equal(t, "a1", ev.AlertID)
		assert.Equal(t, "created", ev.Action)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}
