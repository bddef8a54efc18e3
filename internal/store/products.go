package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finchdev/ffe-scraper/internal/models"
)

var ErrNotFound = errors.New("record not found")

// StoredProduct is a persisted scrape result plus its storage identity.
// The pipeline itself assigns no identity; that happens here, on save.
type StoredProduct struct {
	ID        uuid.UUID             `json:"id"`
	Record    *models.ProductRecord `json:"record"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// SaveRecord upserts a scraped record keyed by source URL and returns its
// storage id. Re-scraping a URL replaces the previous row.
func (db *DB) SaveRecord(ctx context.Context, rec *models.ProductRecord) (uuid.UUID, error) {
	dimensions, err := marshalNullable(rec.Dimensions)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal dimensions: %w", err)
	}
	image, err := marshalNullable(rec.Image)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal image: %w", err)
	}
	confidence, err := json.Marshal(rec.Confidence)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal confidence: %w", err)
	}

	var priceAmount *float64
	var priceCurrency *string
	if rec.Price != nil {
		priceAmount = &rec.Price.Amount
		priceCurrency = &rec.Price.Currency
	}

	query := `
		INSERT INTO scraped_products (
			id, source_url, vendor, name, price_amount, price_currency,
			sku, dimensions, finish_color, description, image, confidence, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (source_url) DO UPDATE SET
			vendor = EXCLUDED.vendor,
			name = EXCLUDED.name,
			price_amount = EXCLUDED.price_amount,
			price_currency = EXCLUDED.price_currency,
			sku = EXCLUDED.sku,
			dimensions = EXCLUDED.dimensions,
			finish_color = EXCLUDED.finish_color,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			confidence = EXCLUDED.confidence,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()
		RETURNING id`

	var id uuid.UUID
	err = db.pool.QueryRow(ctx, query,
		uuid.New(), rec.SourceURL, rec.Vendor, rec.Name, priceAmount, priceCurrency,
		rec.SKU, dimensions, rec.FinishColor, rec.Description, image, confidence, rec.ScrapedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save record: %w", err)
	}

	return id, nil
}

// GetRecord loads a stored record by id.
func (db *DB) GetRecord(ctx context.Context, id uuid.UUID) (*StoredProduct, error) {
	query := `
		SELECT id, source_url, vendor, name, price_amount, price_currency,
		       sku, dimensions, finish_color, description, image, confidence,
		       scraped_at, created_at, updated_at
		FROM scraped_products
		WHERE id = $1`

	return db.scanProduct(db.pool.QueryRow(ctx, query, id))
}

// GetRecordByURL loads the stored record for a source URL.
func (db *DB) GetRecordByURL(ctx context.Context, sourceURL string) (*StoredProduct, error) {
	query := `
		SELECT id, source_url, vendor, name, price_amount, price_currency,
		       sku, dimensions, finish_color, description, image, confidence,
		       scraped_at, created_at, updated_at
		FROM scraped_products
		WHERE source_url = $1`

	return db.scanProduct(db.pool.QueryRow(ctx, query, sourceURL))
}

// CountByVendor reports how many stored records each vendor has.
func (db *DB) CountByVendor(ctx context.Context) (map[string]int, error) {
	rows, err := db.pool.Query(ctx, `SELECT vendor, COUNT(*) FROM scraped_products GROUP BY vendor`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by vendor: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var vendor string
		var count int
		if err := rows.Scan(&vendor, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[vendor] = count
	}

	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanProduct(row rowScanner) (*StoredProduct, error) {
	var (
		sp            StoredProduct
		rec           models.ProductRecord
		name          sql.NullString
		priceAmount   sql.NullFloat64
		priceCurrency sql.NullString
		sku           sql.NullString
		dimensions    []byte
		finishColor   sql.NullString
		description   sql.NullString
		image         []byte
		confidence    []byte
	)

	err := row.Scan(
		&sp.ID, &rec.SourceURL, &rec.Vendor, &name, &priceAmount, &priceCurrency,
		&sku, &dimensions, &finishColor, &description, &image, &confidence,
		&rec.ScrapedAt, &sp.CreatedAt, &sp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	if name.Valid {
		rec.Name = &name.String
	}
	if priceAmount.Valid {
		currency := "USD"
		if priceCurrency.Valid {
			currency = priceCurrency.String
		}
		rec.Price = &models.Money{Amount: priceAmount.Float64, Currency: currency}
	}
	if sku.Valid {
		rec.SKU = &sku.String
	}
	if finishColor.Valid {
		rec.FinishColor = &finishColor.String
	}
	if description.Valid {
		rec.Description = &description.String
	}
	if len(dimensions) > 0 {
		var d models.Dimensions
		if err := json.Unmarshal(dimensions, &d); err == nil {
			rec.Dimensions = &d
		}
	}
	if len(image) > 0 {
		var img models.EncodedImage
		if err := json.Unmarshal(image, &img); err == nil {
			rec.Image = &img
		}
	}
	if len(confidence) > 0 {
		if err := json.Unmarshal(confidence, &rec.Confidence); err != nil {
			rec.Confidence = nil
		}
	}

	sp.Record = &rec
	return &sp, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case *models.Dimensions:
		if val == nil {
			return nil, nil
		}
	case *models.EncodedImage:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
