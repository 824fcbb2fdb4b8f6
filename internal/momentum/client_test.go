package momentum

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"

	"joblog-audit/internal/sentinel"
)

// momentumStub serves the token endpoint plus a scripted response per path.
// Handlers registered after the token route see only authenticated traffic;
// the suite asserts the auth headers in one place.
type momentumStub struct {
	mux        *http.ServeMux
	server     *httptest.Server
	tokenCalls atomic.Int64
}

func newMomentumStub() *momentumStub {
	stub := &momentumStub{mux: http.NewServeMux()}
	stub.mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		stub.tokenCalls.Add(1)
		if r.FormValue("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-123", ExpiresIn: 3600})
	})
	stub.server = httptest.NewServer(stub.mux)
	return stub
}

func (m *momentumStub) handle(pattern string, handler http.HandlerFunc) {
	m.mux.HandleFunc(pattern, handler)
}

func (m *momentumStub) respond(pattern, body string) {
	m.handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

type ClientSuite struct {
	suite.Suite
	stub   *momentumStub
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.stub = newMomentumStub()
	client, err := New(Config{
		BaseURL:      s.stub.server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		APIKey:       "api-key",
		Resource:     "https://momentum.example",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	client.retryInterval = time.Millisecond
	s.client = client
}

func (s *ClientSuite) TearDownTest() {
	s.stub.server.Close()
}

func (s *ClientSuite) TestNew() {
	s.Run("base url is required", func() {
		_, err := New(Config{}, nil)
		s.Error(err)
	})
}

func (s *ClientSuite) TestAuthentication() {
	s.Run("requests carry bearer token and api key", func() {
		var gotAuth, gotKey string
		s.stub.handle("GET /citizens/0101805678", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotKey = r.Header.Get("x-api-key")
			_, _ = io.WriteString(w, `{"cpr":"0101805678"}`)
		})

		citizen, err := s.client.GetCitizen(context.Background(), "0101805678")
		s.Require().NoError(err)
		s.Equal("0101805678", citizen.CPR)
		s.Equal("Bearer tok-123", gotAuth)
		s.Equal("api-key", gotKey)
	})

	s.Run("token is cached across calls", func() {
		s.stub.respond("GET /citizens/0202815678", `{"cpr":"0202815678"}`)

		_, err := s.client.GetCitizen(context.Background(), "0202815678")
		s.Require().NoError(err)
		_, err = s.client.GetCitizen(context.Background(), "0202815678")
		s.Require().NoError(err)
		s.EqualValues(1, s.stub.tokenCalls.Load())
	})
}

func (s *ClientSuite) TestStatusClassification() {
	s.Run("404 reports not found", func() {
		s.stub.handle("GET /citizens/0101805678", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := s.client.GetCitizen(context.Background(), "0101805678")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("500 reports transient", func() {
		s.stub.handle("GET /citizens/0202815678", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := s.client.GetCitizen(context.Background(), "0202815678")
		s.True(errors.Is(err, sentinel.ErrTransient))
	})

	s.Run("429 reports transient", func() {
		s.stub.handle("GET /citizens/0303825678", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := s.client.GetCitizen(context.Background(), "0303825678")
		s.True(errors.Is(err, sentinel.ErrTransient))
	})
}

func (s *ClientSuite) TestNullVersusEmpty() {
	s.Run("json null body reports not found", func() {
		s.stub.respond("GET /citizens/0101805678/job-search-definition", `null`)

		_, err := s.client.GetJobSearchDefinition(context.Background(), "0101805678")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("empty joblog array is a valid empty log", func() {
		s.stub.respond("GET /citizens/0101805678/joblog", `[]`)

		entries, err := s.client.GetJobLog(context.Background(), "0101805678")
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("absent joblog reports not found", func() {
		s.stub.handle("GET /citizens/0202815678/joblog", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := s.client.GetJobLog(context.Background(), "0202815678")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("citizen search with no matches returns an empty slice", func() {
		s.stub.handle("POST /citizens/search", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		citizens, err := s.client.SearchCitizens(context.Background(), nil)
		s.Require().NoError(err)
		s.NotNil(citizens)
		s.Empty(citizens)
	})
}

func (s *ClientSuite) TestExemptionStatusRetry() {
	s.Run("transient failures retry until success", func() {
		var calls atomic.Int64
		s.stub.handle("GET /citizens/0101805678/exemption-status", func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = io.WriteString(w, `{"personExemptNames":["Brug af Joblog"]}`)
		})

		status, err := s.client.GetExemptionStatus(context.Background(), "0101805678")
		s.Require().NoError(err)
		s.True(status.Contains("Brug af Joblog"))
		s.EqualValues(3, calls.Load())
	})

	s.Run("attempt budget caps at ten", func() {
		var calls atomic.Int64
		s.stub.handle("GET /citizens/0202815678/exemption-status", func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := s.client.GetExemptionStatus(context.Background(), "0202815678")
		s.Require().Error(err)
		s.True(errors.Is(err, sentinel.ErrTransient), "final error keeps its classification")
		s.EqualValues(10, calls.Load())
	})

	s.Run("not found is permanent, no retry", func() {
		var calls atomic.Int64
		s.stub.handle("GET /citizens/0303825678/exemption-status", func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := s.client.GetExemptionStatus(context.Background(), "0303825678")
		s.True(errors.Is(err, sentinel.ErrNotFound))
		s.EqualValues(1, calls.Load())
	})
}

func (s *ClientSuite) TestCreateTask() {
	s.Run("posts the task payload", func() {
		var got TaskRequest
		s.stub.handle("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
		})

		req := TaskRequest{
			CitizenCPR:  "0101805678",
			AssigneeIDs: []string{"cw-1"},
			DueDate:     time.Date(2025, time.March, 22, 12, 0, 0, 0, time.UTC),
			Title:       "Kontrol af joblog",
			Description: "Der er registreret for få job i joblog.",
		}
		s.Require().NoError(s.client.CreateTask(context.Background(), req))
		s.Equal(req.CitizenCPR, got.CitizenCPR)
		s.Equal(req.Title, got.Title)
	})
}

func (s *ClientSuite) TestHealth() {
	s.Run("reachable token endpoint is healthy", func() {
		s.Require().NoError(s.client.Health(context.Background()))
	})

	s.Run("unreachable api reports an error", func() {
		down, err := New(Config{BaseURL: "http://127.0.0.1:1"},
			slog.New(slog.NewTextHandler(io.Discard, nil)))
		s.Require().NoError(err)
		s.Error(down.Health(context.Background()))
	})
}

func (s *ClientSuite) TestFlexString() {
	s.Run("number decodes", func() {
		var f FlexString
		s.Require().NoError(json.Unmarshal([]byte(`1234`), &f))
		s.Equal(FlexString("1234"), f)
	})

	s.Run("string decodes", func() {
		var f FlexString
		s.Require().NoError(json.Unmarshal([]byte(`"1234"`), &f))
		s.Equal(FlexString("1234"), f)
	})

	s.Run("null decodes to empty", func() {
		f := FlexString("stale")
		s.Require().NoError(json.Unmarshal([]byte(`null`), &f))
		s.Equal(FlexString(""), f)
	})
}
