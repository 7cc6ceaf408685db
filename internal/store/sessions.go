package store

import (
	"context"

	"pos-order-api/internal/models"
)

// FindOpenSession returns the first session in the opened state
func (s *Store) FindOpenSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	found, err := s.get(ctx, &session,
		"SELECT * FROM pos_session WHERE state = $1 ORDER BY id LIMIT 1", models.SessionStateOpened)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// FindLatestSessionByConfig returns the newest session of a configuration
func (s *Store) FindLatestSessionByConfig(ctx context.Context, configID int64) (*models.Session, error) {
	var session models.Session
	found, err := s.get(ctx, &session,
		"SELECT * FROM pos_session WHERE config_id = $1 ORDER BY id DESC LIMIT 1", configID)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// FindLatestSession returns the newest session of any configuration
func (s *Store) FindLatestSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	found, err := s.get(ctx, &session, "SELECT * FROM pos_session ORDER BY id DESC LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	var session models.Session
	found, err := s.get(ctx, &session, "SELECT * FROM pos_session WHERE id = $1", id)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// CreateSession creates a new session
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if session.State == "" {
		session.State = models.SessionStateOpeningControl
	}
	return s.insert(ctx, &session.ID,
		"INSERT INTO pos_session (config_id, user_id, state) VALUES ($1, $2, $3) RETURNING id",
		session.ConfigID, session.UserID, session.State)
}

// OpenSession moves a session to the opened state
func (s *Store) OpenSession(ctx context.Context, id int64) error {
	_, err := s.exec(ctx,
		"UPDATE pos_session SET state = $1, start_at = NOW() WHERE id = $2",
		models.SessionStateOpened, id)
	return err
}

// FindPosConfigByName retrieves a POS configuration by exact name
func (s *Store) FindPosConfigByName(ctx context.Context, name string) (*models.PosConfig, error) {
	var cfg models.PosConfig
	found, err := s.get(ctx, &cfg, "SELECT * FROM pos_config WHERE name = $1 ORDER BY id LIMIT 1", name)
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

// FindAnyPosConfig returns the first POS configuration
func (s *Store) FindAnyPosConfig(ctx context.Context) (*models.PosConfig, error) {
	var cfg models.PosConfig
	found, err := s.get(ctx, &cfg, "SELECT * FROM pos_config ORDER BY id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

// GetPosConfig retrieves a POS configuration by ID
func (s *Store) GetPosConfig(ctx context.Context, id int64) (*models.PosConfig, error) {
	var cfg models.PosConfig
	found, err := s.get(ctx, &cfg, "SELECT * FROM pos_config WHERE id = $1", id)
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

// CreatePosConfig creates a new POS configuration
func (s *Store) CreatePosConfig(ctx context.Context, cfg *models.PosConfig) error {
	query := `
		INSERT INTO pos_config (name, company_id, journal_id, invoice_journal_id, pricelist_id, use_pricelist)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return s.insert(ctx, &cfg.ID, query,
		cfg.Name, cfg.CompanyID, cfg.JournalID, cfg.InvoiceJournalID, cfg.PricelistID, cfg.UsePricelist)
}

// DefaultCompany returns company 1, or the first company
func (s *Store) DefaultCompany(ctx context.Context) (*models.Company, error) {
	var company models.Company
	found, err := s.get(ctx, &company,
		"SELECT * FROM res_company ORDER BY (id = 1) DESC, id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &company, nil
}

// FindPosJournal returns a general journal with a POS code for the company
func (s *Store) FindPosJournal(ctx context.Context, companyID int64) (*models.Journal, error) {
	var journal models.Journal
	found, err := s.get(ctx, &journal, `
		SELECT * FROM account_journal
		WHERE type = 'general' AND company_id = $1 AND code LIKE 'POS%'
		ORDER BY id LIMIT 1`, companyID)
	if err != nil || !found {
		return nil, err
	}
	return &journal, nil
}

// CreateJournal creates a new journal
func (s *Store) CreateJournal(ctx context.Context, journal *models.Journal) error {
	query := `
		INSERT INTO account_journal (name, code, type, company_id, sequence)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.insert(ctx, &journal.ID, query,
		journal.Name, journal.Code, journal.Type, journal.CompanyID, journal.Sequence)
}
