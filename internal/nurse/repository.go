package nurse

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("interaction not found")

type Repository interface {
	Save(ctx context.Context, i *Interaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Interaction, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]Interaction, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Save(ctx context.Context, i *Interaction) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	response := []byte(i.Response)
	if len(response) == 0 {
		response = []byte("{}")
	}

	query := `
		INSERT INTO nurse_interactions (id, patient_id, channel, message, risk_level, degraded, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.PatientID, string(i.Channel), i.Message, string(i.RiskLevel), i.Degraded, response, i.CreatedAt)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Interaction, error) {
	query := `SELECT id, patient_id, channel, message, risk_level, degraded, response, created_at FROM nurse_interactions WHERE id = $1`

	i, err := scanInteraction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

func (r *postgresRepo) ListByPatient(ctx context.Context, patientID string, limit int) ([]Interaction, error) {
	query := `
		SELECT id, patient_id, channel, message, risk_level, degraded, response, created_at
		FROM nurse_interactions
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Interaction{}
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (*Interaction, error) {
	var i Interaction
	var channel, risk string
	var response []byte
	if err := row.Scan(&i.ID, &i.PatientID, &channel, &i.Message, &risk, &i.Degraded, &response, &i.CreatedAt); err != nil {
		return nil, err
	}
	i.Channel = Channel(channel)
	i.RiskLevel = ParseRiskLevel(risk)
	i.Response = response
	return &i, nil
}

// memoryRepo keeps interactions in process. Used when no database is
// configured. Each patient keeps at most perPatient entries, newest first.
type memoryRepo struct {
	mu         sync.RWMutex
	byPatient  map[string][]Interaction
	perPatient int
}

func NewMemoryRepository() Repository {
	return &memoryRepo{
		byPatient:  make(map[string][]Interaction),
		perPatient: maxHistoryLimit,
	}
}

func (r *memoryRepo) Save(_ context.Context, i *Interaction) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items := append(r.byPatient[i.PatientID], *i)
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.After(items[b].CreatedAt)
	})
	if len(items) > r.perPatient {
		// drop the oldest; copy so the evicted entries are released
		items = append([]Interaction(nil), items[:r.perPatient]...)
	}
	r.byPatient[i.PatientID] = items
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, items := range r.byPatient {
		for _, i := range items {
			if i.ID == id {
				found := i
				return &found, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) ListByPatient(_ context.Context, patientID string, limit int) ([]Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byPatient[patientID]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return append([]Interaction{}, items...), nil
}
