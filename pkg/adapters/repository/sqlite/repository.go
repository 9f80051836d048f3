package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'published',
		thumbnail_url TEXT,
		editable_content TEXT,
		creator_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_templates_category ON templates(category);

	CREATE TABLE IF NOT EXISTS bio_pages (
		share_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		template_id TEXT NOT NULL,
		title TEXT NOT NULL,
		bio_text TEXT NOT NULL,
		social_handles JSON,
		links JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_bio_pages_user_id ON bio_pages(user_id);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		phone_verified INTEGER NOT NULL DEFAULT 0,
		subscription TEXT,
		subscription_expiry DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS otp_challenges (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		code_hash TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_otp_challenges_user ON otp_challenges(user_id, phone_number);
	`
	if _, err := db.Exec(query); err != nil {
		return err
	}

	// Databases created before attempts were tracked. The error for an
	// existing column is ignored.
	_, _ = db.Exec(`ALTER TABLE otp_challenges ADD COLUMN attempts INTEGER NOT NULL DEFAULT 0`)
	return nil
}

// --- Template Repository Implementation ---

const templateColumns = `id, name, category, description, status, thumbnail_url, editable_content, creator_id, created_at`

func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t *domain.Template) error {
	query := `INSERT INTO templates (` + templateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Category, t.Description, string(t.Status), t.ThumbnailURL,
		string(t.EditableContent), t.CreatorID, t.CreatedAt.UTC(),
	)
	return err
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`
	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE status = ? ORDER BY created_at DESC`
	return r.queryTemplates(ctx, query, string(domain.TemplateStatusPublished))
}

func (r *SQLiteRepository) ListTemplatesByCategory(ctx context.Context, category string) ([]domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE status = ? AND category = ? ORDER BY created_at DESC`
	return r.queryTemplates(ctx, query, string(domain.TemplateStatusPublished), category)
}

func (r *SQLiteRepository) queryTemplates(ctx context.Context, query string, args ...interface{}) ([]domain.Template, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row scanner) (*domain.Template, error) {
	var t domain.Template
	var status string
	var description, thumbnail, content, creator sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Category, &description, &status, &thumbnail, &content, &creator, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TemplateStatus(status)
	t.Description = description.String
	t.ThumbnailURL = thumbnail.String
	t.CreatorID = creator.String
	if content.String != "" {
		t.EditableContent = []byte(content.String)
	}
	return &t, nil
}

// --- Bio Page Repository Implementation ---

const bioPageColumns = `user_id, template_id, title, bio_text, social_handles, links, created_at, updated_at`

// UpsertBioPage writes the page under its share id. An existing row keeps
// its created_at.
func (r *SQLiteRepository) UpsertBioPage(ctx context.Context, page *domain.BioPage) error {
	handlesJSON, err := json.Marshal(nonNilHandles(page.SocialHandles))
	if err != nil {
		return err
	}
	linksJSON, err := json.Marshal(nonNilLinks(page.Links))
	if err != nil {
		return err
	}

	query := `INSERT INTO bio_pages (share_id, ` + bioPageColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(share_id) DO UPDATE SET
				title = excluded.title,
				bio_text = excluded.bio_text,
				social_handles = excluded.social_handles,
				links = excluded.links,
				updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		page.ShareID().String(), page.UserID, page.TemplateID, page.Title, page.BioText,
		string(handlesJSON), string(linksJSON), page.CreatedAt.UTC(), page.UpdatedAt.UTC(),
	)
	return err
}

func (r *SQLiteRepository) GetBioPage(ctx context.Context, shareID domain.ShareID) (*domain.BioPage, error) {
	query := `SELECT ` + bioPageColumns + ` FROM bio_pages WHERE share_id = ?`
	page, err := scanBioPage(r.db.QueryRowContext(ctx, query, shareID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *SQLiteRepository) ListBioPagesByUser(ctx context.Context, userID string) ([]domain.BioPage, error) {
	query := `SELECT ` + bioPageColumns + ` FROM bio_pages WHERE user_id = ? ORDER BY updated_at DESC`
	return r.queryBioPages(ctx, query, userID)
}

func (r *SQLiteRepository) DumpBioPages(ctx context.Context) ([]domain.BioPage, error) {
	query := `SELECT ` + bioPageColumns + ` FROM bio_pages ORDER BY created_at ASC`
	return r.queryBioPages(ctx, query)
}

func (r *SQLiteRepository) queryBioPages(ctx context.Context, query string, args ...interface{}) ([]domain.BioPage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.BioPage
	for rows.Next() {
		p, err := scanBioPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func scanBioPage(row scanner) (*domain.BioPage, error) {
	var p domain.BioPage
	var handlesJSON, linksJSON sql.NullString
	if err := row.Scan(&p.UserID, &p.TemplateID, &p.Title, &p.BioText, &handlesJSON, &linksJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(handlesJSON.String), &p.SocialHandles)
	_ = json.Unmarshal([]byte(linksJSON.String), &p.Links)
	p.SocialHandles = nonNilHandles(p.SocialHandles)
	p.Links = nonNilLinks(p.Links)
	return &p, nil
}

func nonNilHandles(h []domain.SocialHandle) []domain.SocialHandle {
	if h == nil {
		return []domain.SocialHandle{}
	}
	return h
}

func nonNilLinks(l []domain.Link) []domain.Link {
	if l == nil {
		return []domain.Link{}
	}
	return l
}

// --- Profile Repository Implementation ---

const profileColumns = `user_id, first_name, last_name, email, phone_number, phone_verified, subscription, subscription_expiry, created_at, updated_at`

func (r *SQLiteRepository) CreateProfile(ctx context.Context, p *domain.UserProfile) error {
	query := `INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sub, expiry := subscriptionArgs(p)
	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.PhoneVerified,
		sub, expiry, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return err
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ?`

	var p domain.UserProfile
	var sub sql.NullString
	var expiry sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.PhoneNumber, &p.PhoneVerified,
		&sub, &expiry, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sub.Valid {
		tier := domain.SubscriptionTier(sub.String)
		p.Subscription = &tier
	}
	if expiry.Valid {
		p.SubscriptionExpiry = &expiry.Time
	}
	return &p, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p *domain.UserProfile) error {
	query := `UPDATE profiles SET first_name = ?, last_name = ?, email = ?, phone_number = ?, phone_verified = ?,
			  subscription = ?, subscription_expiry = ?, updated_at = ? WHERE user_id = ?`
	sub, expiry := subscriptionArgs(p)
	_, err := r.db.ExecContext(ctx, query,
		p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.PhoneVerified,
		sub, expiry, p.UpdatedAt.UTC(), p.UserID,
	)
	return err
}

func subscriptionArgs(p *domain.UserProfile) (sql.NullString, sql.NullTime) {
	var sub sql.NullString
	var expiry sql.NullTime
	if p.Subscription != nil {
		sub = sql.NullString{String: string(*p.Subscription), Valid: true}
	}
	if p.SubscriptionExpiry != nil {
		expiry = sql.NullTime{Time: p.SubscriptionExpiry.UTC(), Valid: true}
	}
	return sub, expiry
}

func (r *SQLiteRepository) SaveOTPChallenge(ctx context.Context, c *domain.OTPChallenge) error {
	query := `INSERT INTO otp_challenges (id, user_id, phone_number, code_hash, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.PhoneNumber, c.CodeHash, c.ExpiresAt.UTC(), c.CreatedAt.UTC())
	return err
}

// GetOTPChallenge returns the newest challenge for the user and phone number.
func (r *SQLiteRepository) GetOTPChallenge(ctx context.Context, userID, phoneNumber string) (*domain.OTPChallenge, error) {
	query := `SELECT id, user_id, phone_number, code_hash, attempts, expires_at, created_at FROM otp_challenges
			  WHERE user_id = ? AND phone_number = ? ORDER BY created_at DESC LIMIT 1`

	var c domain.OTPChallenge
	err := r.db.QueryRowContext(ctx, query, userID, phoneNumber).Scan(
		&c.ID, &c.UserID, &c.PhoneNumber, &c.CodeHash, &c.Attempts, &c.ExpiresAt, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordOTPFailure bumps the challenge's wrong-code counter and returns the
// new count.
func (r *SQLiteRepository) RecordOTPFailure(ctx context.Context, challengeID string) (int, error) {
	if _, err := r.db.ExecContext(ctx, `UPDATE otp_challenges SET attempts = attempts + 1 WHERE id = ?`, challengeID); err != nil {
		return 0, err
	}
	var attempts int
	err := r.db.QueryRowContext(ctx, `SELECT attempts FROM otp_challenges WHERE id = ?`, challengeID).Scan(&attempts)
	return attempts, err
}

func (r *SQLiteRepository) DeleteOTPChallenges(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE user_id = ?`, userID)
	return err
}

// Ensure interface compliance
var _ ports.Repository = (*SQLiteRepository)(nil)
