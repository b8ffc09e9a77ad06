package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	supabase "github.com/nedpals/supabase-go"

	"jobboard-engine/internal/domain"
)

// SupabaseGateway stores jobs in a PostgREST "jobs" table whose columns
// are named after the job's JSON fields; history is a jsonb column.
// Board position is not persisted by this backend.
type SupabaseGateway struct {
	client *supabase.Client
	table  string
	now    func() time.Time
}

func NewSupabaseGateway(supabaseURL, supabaseKey string) (*SupabaseGateway, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via config or SUPABASE_URL / SUPABASE_KEY env vars")
	}
	return &SupabaseGateway{
		client: supabase.CreateClient(supabaseURL, supabaseKey),
		table:  "jobs",
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *SupabaseGateway) ListJobs(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := s.client.DB.From(s.table).Select("*").Execute(&jobs); err != nil {
		return nil, classify("list jobs", err)
	}
	return jobs, nil
}

func (s *SupabaseGateway) CreateJob(ctx context.Context, in domain.JobInput) (domain.Job, error) {
	j := domain.NewJob(uuid.NewString(), in, s.now())
	var results []domain.Job
	if err := s.client.DB.From(s.table).Insert(j).Execute(&results); err != nil {
		return domain.Job{}, classify("create job", err)
	}
	if len(results) > 0 && results[0].ID != "" {
		return results[0], nil
	}
	return j, nil
}

func (s *SupabaseGateway) get(id string) (domain.Job, error) {
	var rows []domain.Job
	if err := s.client.DB.From(s.table).Select("*").Eq("id", id).Execute(&rows); err != nil {
		return domain.Job{}, classify("get job", err)
	}
	if len(rows) == 0 {
		return domain.Job{}, &NetworkError{Op: "get job", Status: 404, Problem: &Problem{Title: "job not found", ID: "not_found"}}
	}
	return rows[0], nil
}

type statusRow struct {
	Status          domain.Stage   `json:"status"`
	StatusChangedAt time.Time      `json:"statusChangedAt"`
	History         domain.History `json:"history"`
}

func (s *SupabaseGateway) UpdateJobStatus(ctx context.Context, id string, status domain.Stage, position *int) error {
	cur, err := s.get(id)
	if err != nil {
		return err
	}
	if cur.Status == status {
		return nil
	}
	now := s.now()
	row := statusRow{Status: status, StatusChangedAt: now, History: cur.History.Transition(status, now)}
	var results []domain.Job
	if err := s.client.DB.From(s.table).Update(row).Eq("id", id).Execute(&results); err != nil {
		return classify("update status", err)
	}
	return nil
}

func (s *SupabaseGateway) UpdateJobFields(ctx context.Context, id string, patch domain.JobPatch) error {
	fields := patch.Fields()
	if fields.Empty() {
		return nil
	}
	var results []domain.Job
	if err := s.client.DB.From(s.table).Update(fields).Eq("id", id).Execute(&results); err != nil {
		return classify("update fields", err)
	}
	return nil
}

func (s *SupabaseGateway) DeleteJob(ctx context.Context, id string) error {
	var results []domain.Job
	if err := s.client.DB.From(s.table).Delete().Eq("id", id).Execute(&results); err != nil {
		return classify("delete job", err)
	}
	return nil
}

func classify(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "jwt") || strings.Contains(msg, "401") || strings.Contains(msg, "permission denied") {
		return &AuthError{Status: 401, Message: err.Error()}
	}
	return &NetworkError{Op: op, Err: err}
}
