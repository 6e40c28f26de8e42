package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/landsync/internal/models"
)

const landholderColumns = `
	id,
	code,
	COALESCE(honorific, ''),
	given_name,
	family_name,
	COALESCE(house_address, ''),
	COALESCE(village, ''),
	COALESCE(village_no, ''),
	COALESCE(sub_district, ''),
	COALESCE(district, ''),
	COALESCE(province, ''),
	created_at,
	updated_at`

// landholderRepository is the pgx implementation of LandholderRepository.
type landholderRepository struct {
	q querier
}

// NewLandholderRepository creates a landholder repository over a pool or transaction.
func NewLandholderRepository(q querier) LandholderRepository {
	return &landholderRepository{q: q}
}

func scanLandholder(row pgx.Row) (*models.Landholder, error) {
	var l models.Landholder
	err := row.Scan(
		&l.ID,
		&l.Code,
		&l.Honorific,
		&l.GivenName,
		&l.FamilyName,
		&l.HouseAddress,
		&l.Home.Village,
		&l.Home.VillageNo,
		&l.Home.SubDistrict,
		&l.Home.District,
		&l.Home.Province,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindByCode returns the oldest landholder carrying the code.
func (r *landholderRepository) FindByCode(ctx context.Context, code string) (*models.Landholder, error) {
	query := `SELECT` + landholderColumns + `
		FROM landholders
		WHERE code = $1
		ORDER BY id
		LIMIT 1`

	l, err := scanLandholder(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query landholder %s: %w", code, err)
	}
	return l, nil
}

func (r *landholderRepository) FindByID(ctx context.Context, id int64) (*models.Landholder, error) {
	query := `SELECT` + landholderColumns + `
		FROM landholders
		WHERE id = $1`

	l, err := scanLandholder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query landholder %d: %w", id, err)
	}
	return l, nil
}

func (r *landholderRepository) Insert(ctx context.Context, l *models.Landholder) error {
	query := `
		INSERT INTO landholders
			(code, honorific, given_name, family_name, house_address,
			 village, village_no, sub_district, district, province)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''),
			NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		l.Code, l.Honorific, l.GivenName, l.FamilyName, l.HouseAddress,
		l.Home.Village, l.Home.VillageNo, l.Home.SubDistrict, l.Home.District, l.Home.Province,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert landholder %s: %w", l.Code, translateError(err))
	}
	return nil
}

func (r *landholderRepository) Update(ctx context.Context, l *models.Landholder) error {
	query := `
		UPDATE landholders SET
			honorific = NULLIF($2, ''),
			given_name = $3,
			family_name = $4,
			house_address = NULLIF($5, ''),
			village = NULLIF($6, ''),
			village_no = NULLIF($7, ''),
			sub_district = NULLIF($8, ''),
			district = NULLIF($9, ''),
			province = NULLIF($10, ''),
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.q.QueryRow(ctx, query,
		l.ID, l.Honorific, l.GivenName, l.FamilyName, l.HouseAddress,
		l.Home.Village, l.Home.VillageNo, l.Home.SubDistrict, l.Home.District, l.Home.Province,
	).Scan(&l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("landholder %d not found", l.ID)
		}
		return fmt.Errorf("failed to update landholder %d: %w", l.ID, err)
	}
	return nil
}
