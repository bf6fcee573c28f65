package module

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peacekeeper/internal/core/respond"
	"peacekeeper/internal/modkit"
	"peacekeeper/internal/platform/config"
	perr "peacekeeper/internal/platform/errors"
	phttp "peacekeeper/internal/platform/net/http"
	cdomain "peacekeeper/internal/services/conflicts/domain"
	"peacekeeper/internal/services/mediation/domain"
	mdomain "peacekeeper/internal/services/messages/domain"
)

type pageStore struct{ rows []mdomain.Message }

func (p pageStore) Recent(context.Context, string, int) ([]mdomain.Message, error) { return p.rows, nil }

func (p pageStore) RecentSince(context.Context, string, time.Time, int) ([]mdomain.Message, error) {
	return p.rows, nil
}

type sent struct{ texts []string }

func (s *sent) Send(_ context.Context, _, text string) (string, error) {
	s.texts = append(s.texts, text)
	return "m-1", nil
}

func peer(name string, ports any) modkit.Module {
	b := modkit.Build([]modkit.Option{modkit.WithName(name), modkit.WithPorts(ports)})
	return &b
}

func hostilePage() []mdomain.Message {
	at := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	lines := []string{"you're wrong", "SHUT UP you idiot", "you're an asshole!!!", "nobody asked, LOSER"}
	out := make([]mdomain.Message, len(lines))
	for i, l := range lines {
		author := "ann"
		if i%2 == 1 {
			author = "ben"
		}
		// newest first
		out[len(lines)-1-i] = mdomain.Message{ID: l, ChannelID: "c1", AuthorID: author, Content: l, CreatedAt: at.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func TestModule_ChecksAndServesRoutes(t *testing.T) {
	snd := &sent{}
	msgs := peer("messages", struct{ Store domain.MessageStore }{pageStore{rows: hostilePage()}})

	gen := respond.GeneratorFunc(func(context.Context, respond.Request) (string, error) {
		return "Let's all take a breath.", nil
	})
	m, err := New(modkit.Deps{Cfg: config.New().Prefix("PKMODTEST_")}, Peers{Messages: msgs, Generator: gen, Sender: snd})
	require.NoError(t, err)
	assert.Equal(t, "mediation", m.Name())
	require.NoError(t, m.EnsureSchema(context.Background()), "no postgres, nothing to create")

	out, err := m.Check(context.Background(), domain.Trigger{ChannelID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, cdomain.OutcomeMediated, out.Result)
	assert.Equal(t, []string{"Let's all take a breath."}, snd.texts)

	again, err := m.Check(context.Background(), domain.Trigger{ChannelID: "c1"})
	require.NoError(t, err)
	assert.True(t, again.Suppressed(), "cooldown applies to the next check")

	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/channels/c1/stats", nil))
	require.Equal(t, 200, rec.Code)

	var env phttp.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	data := env.Data.(map[string]any)
	assert.EqualValues(t, 1, data["interventions_last_hour"])
	assert.Equal(t, false, data["can_intervene_now"])

	med, ok := modkit.PortsOf[interface {
		Check(context.Context, domain.Trigger) (domain.Outcome, error)
	}](m)
	require.True(t, ok)
	assert.NotNil(t, med)
}

func TestModule_RequiresCollaborators(t *testing.T) {
	cfg := config.New().Prefix("PKMODTEST_")

	_, err := New(modkit.Deps{Cfg: cfg}, Peers{})
	assert.Error(t, err)

	msgs := peer("messages", struct{ Store domain.MessageStore }{pageStore{}})
	_, err = New(modkit.Deps{Cfg: cfg}, Peers{Messages: msgs})
	assert.Error(t, err, "no sender and no postgres")

	_, err = New(modkit.Deps{Cfg: cfg}, Peers{Messages: peer("other", struct{}{}), Sender: &sent{}})
	assert.Error(t, err, "peer without a message store")
}

func TestModule_RedisBackendNeedsRedis(t *testing.T) {
	t.Setenv("PKREDISTEST_CORE_MEDIATION_POLICY_BACKEND", "redis")
	msgs := peer("messages", struct{ Store domain.MessageStore }{pageStore{}})

	_, err := New(modkit.Deps{Cfg: config.New().Prefix("PKREDISTEST_")}, Peers{Messages: msgs, Sender: &sent{}})
	assert.Error(t, err)
}

func TestModule_SharedPolicyNeedsRedisBackend(t *testing.T) {
	msgs := peer("messages", struct{ Store domain.MessageStore }{pageStore{rows: hostilePage()}})

	// two processes with local policies would each grant the same channel
	_, err := New(modkit.Deps{Cfg: config.New().Prefix("PKSHARED_")},
		Peers{Messages: msgs, Sender: &sent{}, SharedPolicy: true})
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	t.Setenv("PKSHAREDRDS_CORE_MEDIATION_POLICY_BACKEND", "redis")
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })

	m, err := New(modkit.Deps{Cfg: config.New().Prefix("PKSHAREDRDS_"), RDS: rdb},
		Peers{Messages: msgs, Sender: &sent{}, SharedPolicy: true})
	require.NoError(t, err)
	assert.Equal(t, "redis", m.Service().Config().PolicyBackend)
}
