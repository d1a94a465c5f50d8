package database

import (
	"database/sql"
	"fmt"
	"time"

	"musili-homes-backend/internal/models"

	_ "github.com/lib/pq"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the properties table if it doesn't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id INTEGER PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		price DECIMAL(14, 2) NOT NULL,
		status VARCHAR(20) NOT NULL,
		location VARCHAR(255) NOT NULL,
		address TEXT NOT NULL,
		bedrooms INTEGER NOT NULL,
		bathrooms DECIMAL(4, 1) NOT NULL,
		size INTEGER NOT NULL,
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		agent_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Create indexes for filtering
	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price);
	CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);
	CREATE INDEX IF NOT EXISTS idx_properties_featured ON properties(featured);
	`
	_, err := db.conn.Exec(query)
	return err
}

// SaveProperty mirrors a listing into the read replica (upsert by id)
func (db *DB) SaveProperty(p *models.Property) error {
	query := `
	INSERT INTO properties (
		id, title, description, price, status,
		location, address, bedrooms, bathrooms, size,
		featured, agent_id, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		status = EXCLUDED.status,
		location = EXCLUDED.location,
		address = EXCLUDED.address,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		size = EXCLUDED.size,
		featured = EXCLUDED.featured,
		agent_id = EXCLUDED.agent_id,
		updated_at = EXCLUDED.updated_at
	`
	_, err := db.conn.Exec(query,
		p.ID, p.Title, p.Description, p.Price, string(p.Status),
		p.Location, p.Address, p.Bedrooms, p.Bathrooms, p.Size,
		p.Featured, p.AgentID, p.CreatedAt, time.Now())
	return err
}

// DeleteProperty removes a listing from the read replica
func (db *DB) DeleteProperty(id int) error {
	_, err := db.conn.Exec(`DELETE FROM properties WHERE id = $1`, id)
	return err
}

// GetAllProperties retrieves all listings from the read replica
func (db *DB) GetAllProperties() ([]models.Property, error) {
	query := `
		SELECT id, title, description, price, status,
			   location, address, bedrooms, bathrooms, size,
			   featured, agent_id, created_at, updated_at
		FROM properties
		ORDER BY created_at DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		var p models.Property
		var status string
		err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Price, &status,
			&p.Location, &p.Address, &p.Bedrooms, &p.Bathrooms, &p.Size,
			&p.Featured, &p.AgentID, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		p.Status = models.PropertyStatus(status)
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

// GetPropertyByID retrieves a listing by ID
func (db *DB) GetPropertyByID(id int) (*models.Property, error) {
	query := `
		SELECT id, title, description, price, status,
			   location, address, bedrooms, bathrooms, size,
			   featured, agent_id, created_at, updated_at
		FROM properties
		WHERE id = $1
	`

	var p models.Property
	var status string
	err := db.conn.QueryRow(query, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &status,
		&p.Location, &p.Address, &p.Bedrooms, &p.Bathrooms, &p.Size,
		&p.Featured, &p.AgentID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = models.PropertyStatus(status)

	return &p, nil
}
