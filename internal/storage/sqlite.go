package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
)

// Storage handles database operations
type Storage struct {
	db *sql.DB
}

// Analysis is one persisted analysis run
type Analysis struct {
	ID          int64
	Timestamp   time.Time
	Well        string
	TOCDepth    float64
	GoodPct     float64
	CementScore *float64 // nil when scoring inputs were not supplied
	KPIs        map[string]float64
	Intervals   []cbl.QualityInterval
	Layers      []cbl.LayerAnalysisItem
}

// FromResult builds a persistable Analysis from an analysis result
func FromResult(res *cbl.Result, ts time.Time) *Analysis {
	a := &Analysis{
		Timestamp: ts,
		Well:      res.Well,
		TOCDepth:  res.KPIs[cbl.KPITOC],
		GoodPct:   res.KPIs[cbl.KPIGoodPct],
		KPIs:      res.KPIs,
		Intervals: res.Intervals,
		Layers:    res.Layers,
	}
	if score, ok := res.KPIs[cbl.KPICementScore]; ok {
		a.CementScore = &score
	}
	return a
}

// layerRecord is the JSON shape of a layer item. Adhesion percentages are
// pointers because NaN (undefined window) has no JSON representation.
type layerRecord struct {
	Well            string   `json:"well"`
	Label           string   `json:"label"`
	Top             float64  `json:"top"`
	Base            float64  `json:"base"`
	Length          float64  `json:"length"`
	AdhesionPct     *float64 `json:"adhesion_pct"`
	SealAdhesionPct *float64 `json:"seal_adhesion_pct"`
}

func toLayerRecords(items []cbl.LayerAnalysisItem) []layerRecord {
	out := make([]layerRecord, len(items))
	for i, item := range items {
		out[i] = layerRecord{
			Well:            item.Well,
			Label:           item.Label,
			Top:             item.Top,
			Base:            item.Base,
			Length:          item.Length,
			AdhesionPct:     floatPtr(item.AdhesionPct),
			SealAdhesionPct: floatPtr(item.SealAdhesionPct),
		}
	}
	return out
}

func fromLayerRecords(records []layerRecord) []cbl.LayerAnalysisItem {
	out := make([]cbl.LayerAnalysisItem, len(records))
	for i, rec := range records {
		out[i] = cbl.LayerAnalysisItem{
			Well:            rec.Well,
			Label:           rec.Label,
			Top:             rec.Top,
			Base:            rec.Base,
			Length:          rec.Length,
			AdhesionPct:     floatVal(rec.AdhesionPct),
			SealAdhesionPct: floatVal(rec.SealAdhesionPct),
		}
	}
	return out
}

func floatPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func floatVal(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Database configuration constants
const (
	// busyTimeoutMs is how long SQLite waits when database is locked (5 seconds)
	busyTimeoutMs = 5000
	// maxOpenConns limits concurrent connections (SQLite works best with 1)
	maxOpenConns = 1
	// maxIdleConns is the number of idle connections to keep
	maxIdleConns = 1
	// connMaxLifetime is how long a connection can be reused
	connMaxLifetime = 30 * time.Minute
)

// New creates a new storage instance
func New(dbPath string) (*Storage, error) {
	// Create directory if it doesn't exist (0700 for security - owner only)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with busy timeout to prevent indefinite waits
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection to avoid lock contention
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Schema version constants
const (
	// currentSchemaVersion is the latest schema version
	// Increment this when adding new migrations
	currentSchemaVersion = 1
)

// initSchema creates the database schema if it doesn't exist
func (s *Storage) initSchema() error {
	// Create schema_version table first (tracks migration state)
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	version := s.getSchemaVersion()

	if err := s.migrateSchema(version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version (0 if not set)
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0 // No version set, needs full migration
	}
	return version
}

// setSchemaVersion updates the schema version
func (s *Storage) setSchemaVersion(version int) error {
	// Delete existing and insert new (simpler than upsert for single row)
	if _, err := s.db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return err
	}
	return nil
}

// migrateSchema runs migrations from currentVersion to latest
func (s *Storage) migrateSchema(currentVersion int) error {
	if currentVersion >= currentSchemaVersion {
		return nil // Already up to date
	}

	log.Printf("storage: migrating schema from version %d to %d", currentVersion, currentSchemaVersion)

	if currentVersion < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	if err := s.setSchemaVersion(currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	log.Printf("storage: schema migration completed successfully (now at version %d)", currentSchemaVersion)
	return nil
}

// migrateV1 creates the base analyses table
func (s *Storage) migrateV1() error {
	log.Printf("storage: running migration v1 - create base tables")

	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		well TEXT NOT NULL,
		toc_m REAL NOT NULL,
		good_pct REAL NOT NULL,
		cement_score REAL,
		kpis TEXT,
		intervals TEXT,
		layers TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp ON analyses(timestamp);
	CREATE INDEX IF NOT EXISTS idx_well ON analyses(well);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveAnalysis saves a new analysis to the database
func (s *Storage) SaveAnalysis(a *Analysis) error {
	kpisJSON, err := json.Marshal(a.KPIs)
	if err != nil {
		return fmt.Errorf("failed to marshal kpis: %w", err)
	}

	intervalsJSON, err := json.Marshal(a.Intervals)
	if err != nil {
		return fmt.Errorf("failed to marshal intervals: %w", err)
	}

	layersJSON, err := json.Marshal(toLayerRecords(a.Layers))
	if err != nil {
		return fmt.Errorf("failed to marshal layers: %w", err)
	}

	query := `
		INSERT INTO analyses (
			timestamp, well, toc_m, good_pct, cement_score,
			kpis, intervals, layers
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		a.Timestamp.Format(time.RFC3339),
		a.Well,
		a.TOCDepth,
		a.GoodPct,
		a.CementScore,
		string(kpisJSON),
		string(intervalsJSON),
		string(layersJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	a.ID = id
	return nil
}

// GetRecentAnalyses retrieves analyses from the last N days, optionally
// filtered by well name
func (s *Storage) GetRecentAnalyses(days int, well string) ([]*Analysis, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `
		SELECT id, timestamp, well, toc_m, good_pct, cement_score,
		       kpis, intervals, layers
		FROM analyses
		WHERE timestamp >= ?
	`
	args := []interface{}{cutoffDate}

	if well != "" {
		query += ` AND well = ?`
		args = append(args, well)
	}

	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	var analyses []*Analysis
	for rows.Next() {
		analysis, err := s.scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}

	return analyses, rows.Err()
}

// CleanupOldAnalyses deletes analyses older than N days
func (s *Storage) CleanupOldAnalyses(days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `DELETE FROM analyses WHERE timestamp < ?`
	result, err := s.db.Exec(query, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old analyses: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

// GetStatistics returns database statistics, optionally filtered by well name
func (s *Storage) GetStatistics(well string) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	whereClause := ""
	var args []interface{}
	if well != "" {
		whereClause = " WHERE well = ?"
		args = []interface{}{well}
	}

	// Total count
	var total int
	countQuery := `SELECT COUNT(*) FROM analyses` + whereClause
	err := s.db.QueryRow(countQuery, args...).Scan(&total)
	if err != nil {
		return nil, err
	}
	stats["total_analyses"] = total

	// Per-well distribution
	wellQuery := `SELECT well, COUNT(*) FROM analyses` + whereClause + ` GROUP BY well`
	rows, err := s.db.Query(wellQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	wellDist := make(map[string]int)
	for rows.Next() {
		var w string
		var count int
		if err := rows.Scan(&w, &count); err != nil {
			return nil, err
		}
		wellDist[w] = count
	}
	stats["well_distribution"] = wellDist

	// Average good bond percentage over the filtered set
	var avgGoodPct float64
	avgQuery := `SELECT COALESCE(AVG(good_pct), 0) FROM analyses` + whereClause
	err = s.db.QueryRow(avgQuery, args...).Scan(&avgGoodPct)
	if err != nil {
		return nil, err
	}
	stats["avg_good_pct"] = avgGoodPct

	return stats, nil
}

// scanAnalysis scans a database row into an Analysis struct
func (s *Storage) scanAnalysis(rows *sql.Rows) (*Analysis, error) {
	var (
		id                      int64
		timestamp, well         string
		tocDepth, goodPct       float64
		cementScore             sql.NullFloat64
		kpisJSON, intervalsJSON string
		layersJSON              string
	)

	err := rows.Scan(
		&id, &timestamp, &well, &tocDepth, &goodPct, &cementScore,
		&kpisJSON, &intervalsJSON, &layersJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	var kpis map[string]float64
	var intervals []cbl.QualityInterval
	var layerRecords []layerRecord

	if err := json.Unmarshal([]byte(kpisJSON), &kpis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kpis: %w", err)
	}
	if err := json.Unmarshal([]byte(intervalsJSON), &intervals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intervals: %w", err)
	}
	if err := json.Unmarshal([]byte(layersJSON), &layerRecords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layers: %w", err)
	}

	analysis := &Analysis{
		ID:        id,
		Timestamp: ts,
		Well:      well,
		TOCDepth:  tocDepth,
		GoodPct:   goodPct,
		KPIs:      kpis,
		Intervals: intervals,
		Layers:    fromLayerRecords(layerRecords),
	}
	if cementScore.Valid {
		analysis.CementScore = &cementScore.Float64
	}

	return analysis, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
