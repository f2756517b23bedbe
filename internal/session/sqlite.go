package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"friendship-court/backend/internal/judge"
)

// Database is the SQLite-backed CaseStore. It wraps the GORM handle and
// serializes writes; SQLite tolerates one writer at a time.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// CaseRecord is the GORM row backing a stored case.
type CaseRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	Phase        string `gorm:"size:16;index"`
	Step         int
	StoryA       string `gorm:"type:text"`
	StoryB       string `gorm:"type:text"`
	Tone         string `gorm:"size:16"`
	JudgmentJSON string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetJudgment stores the verdict as a JSON column; nil clears it.
func (r *CaseRecord) SetJudgment(judgment *judge.Judgment) {
	if judgment == nil {
		r.JudgmentJSON = ""
		return
	}
	payload, _ := json.Marshal(judgment)
	r.JudgmentJSON = string(payload)
}

// Judgment decodes the stored verdict, nil when absent.
func (r *CaseRecord) Judgment() *judge.Judgment {
	if strings.TrimSpace(r.JudgmentJSON) == "" {
		return nil
	}
	var out judge.Judgment
	if err := json.Unmarshal([]byte(r.JudgmentJSON), &out); err != nil {
		return nil
	}
	return &out
}

// Open initializes the SQLite-backed case store at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&CaseRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save upserts the case row keyed by its id.
func (d *Database) Save(ctx context.Context, c *Case) error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("case id required")
	}
	record := recordFromCase(c)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"phase", "step", "story_a", "story_b", "tone", "judgment_json", "updated_at"}),
	}).Create(record).Error
}

// Update writes the case only if its row still exists, ErrCaseNotFound
// otherwise. Unlike Save it never recreates a deleted row.
func (d *Database) Update(ctx context.Context, c *Case) error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("case id required")
	}
	record := recordFromCase(c)
	d.mu.Lock()
	defer d.mu.Unlock()
	result := d.gorm.WithContext(ctx).Model(&CaseRecord{}).Where("id = ?", record.ID).Updates(map[string]interface{}{
		"phase":         record.Phase,
		"step":          record.Step,
		"story_a":       record.StoryA,
		"story_b":       record.StoryB,
		"tone":          record.Tone,
		"judgment_json": record.JudgmentJSON,
		"updated_at":    record.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCaseNotFound
	}
	return nil
}

// Load fetches the case by id, ErrCaseNotFound when it does not exist.
func (d *Database) Load(ctx context.Context, id string) (*Case, error) {
	var record CaseRecord
	if err := d.gorm.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return record.Case(), nil
}

// Delete discards the case; deleting an unknown id is not an error.
func (d *Database) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.WithContext(ctx).Delete(&CaseRecord{}, "id = ?", id).Error
}

// Case converts the row back into the domain value.
func (r *CaseRecord) Case() *Case {
	return &Case{
		ID:        r.ID,
		Phase:     Phase(r.Phase),
		Step:      r.Step,
		StoryA:    r.StoryA,
		StoryB:    r.StoryB,
		Tone:      r.Tone,
		Judgment:  r.Judgment(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func recordFromCase(c *Case) *CaseRecord {
	record := &CaseRecord{
		ID:        c.ID,
		Phase:     string(c.Phase),
		Step:      c.Step,
		StoryA:    c.StoryA,
		StoryB:    c.StoryB,
		Tone:      c.Tone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	record.SetJudgment(c.Judgment)
	return record
}
