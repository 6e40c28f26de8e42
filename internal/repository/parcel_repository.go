package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/landsync/internal/models"
)

const parcelColumns = `
	id,
	code,
	landholder_id,
	COALESCE(site_code, ''),
	COALESCE(sub_unit_code, ''),
	COALESCE(site_no, ''),
	COALESCE(survey_no, ''),
	COALESCE(park_name, ''),
	COALESCE(park_code, ''),
	COALESCE(zone_code, ''),
	COALESCE(zone_no, ''),
	COALESCE(village, ''),
	COALESCE(village_no, ''),
	COALESCE(sub_district, ''),
	COALESCE(district, ''),
	COALESCE(province, ''),
	area_rai,
	area_ngan,
	area_sqwa,
	perimeter,
	latitude,
	longitude,
	COALESCE(usage_text, ''),
	land_use,
	risk_remark,
	COALESCE(boundary_type, ''),
	target_fid,
	occupation_year,
	COALESCE(data_issues, ''),
	COALESCE(geometry_digest, ''),
	status,
	created_at,
	updated_at`

// parcelRepository is the pgx implementation of ParcelRepository.
type parcelRepository struct {
	q querier
}

// NewParcelRepository creates a parcel repository over a pool or transaction.
func NewParcelRepository(q querier) ParcelRepository {
	return &parcelRepository{q: q}
}

func scanParcel(row pgx.Row) (*models.Parcel, error) {
	var p models.Parcel
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.LandholderID,
		&p.SiteCode,
		&p.SubUnitCode,
		&p.SiteNo,
		&p.SurveyNo,
		&p.ParkName,
		&p.ParkCode,
		&p.ZoneCode,
		&p.ZoneNo,
		&p.Location.Village,
		&p.Location.VillageNo,
		&p.Location.SubDistrict,
		&p.Location.District,
		&p.Location.Province,
		&p.Area.Rai,
		&p.Area.Ngan,
		&p.Area.SquareWa,
		&p.Perimeter,
		&p.Latitude,
		&p.Longitude,
		&p.UsageText,
		&p.LandUse,
		&p.RiskRemark,
		&p.BoundaryType,
		&p.TargetFID,
		&p.OccupationYear,
		&p.DataIssues,
		&p.GeometryDigest,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// parcelArgs returns the writable columns in the order used by Insert ($1..$30)
// and Update ($2..$31).
func parcelArgs(p *models.Parcel) []any {
	return []any{
		p.Code,
		p.LandholderID,
		p.SiteCode,
		p.SubUnitCode,
		p.SiteNo,
		p.SurveyNo,
		p.ParkName,
		p.ParkCode,
		p.ZoneCode,
		p.ZoneNo,
		p.Location.Village,
		p.Location.VillageNo,
		p.Location.SubDistrict,
		p.Location.District,
		p.Location.Province,
		p.Area.Rai,
		p.Area.Ngan,
		p.Area.SquareWa,
		p.Perimeter,
		p.Latitude,
		p.Longitude,
		p.UsageText,
		string(p.LandUse),
		string(p.RiskRemark),
		p.BoundaryType,
		p.TargetFID,
		p.OccupationYear,
		p.DataIssues,
		p.GeometryDigest,
		string(p.Status),
	}
}

func (r *parcelRepository) FindByCode(ctx context.Context, code string) (*models.Parcel, error) {
	query := `SELECT` + parcelColumns + `
		FROM parcels
		WHERE code = $1`

	p, err := scanParcel(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query parcel %s: %w", code, err)
	}
	return p, nil
}

func (r *parcelRepository) Insert(ctx context.Context, p *models.Parcel) error {
	query := `
		INSERT INTO parcels
			(code, landholder_id, site_code, sub_unit_code, site_no, survey_no,
			 park_name, park_code, zone_code, zone_no,
			 village, village_no, sub_district, district, province,
			 area_rai, area_ngan, area_sqwa, perimeter, latitude, longitude,
			 usage_text, land_use, risk_remark, boundary_type, target_fid, occupation_year,
			 data_issues, geometry_digest, status)
		VALUES
			($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
			 NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
			 NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''),
			 $16, $17, $18, $19, $20, $21,
			 NULLIF($22, ''), $23, $24, NULLIF($25, ''), $26, $27,
			 NULLIF($28, ''), NULLIF($29, ''), $30)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query, parcelArgs(p)...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert parcel %s: %w", p.Code, translateError(err))
	}
	return nil
}

func (r *parcelRepository) Update(ctx context.Context, p *models.Parcel) error {
	query := `
		UPDATE parcels SET
			code = $2,
			landholder_id = $3,
			site_code = NULLIF($4, ''),
			sub_unit_code = NULLIF($5, ''),
			site_no = NULLIF($6, ''),
			survey_no = NULLIF($7, ''),
			park_name = NULLIF($8, ''),
			park_code = NULLIF($9, ''),
			zone_code = NULLIF($10, ''),
			zone_no = NULLIF($11, ''),
			village = NULLIF($12, ''),
			village_no = NULLIF($13, ''),
			sub_district = NULLIF($14, ''),
			district = NULLIF($15, ''),
			province = NULLIF($16, ''),
			area_rai = $17,
			area_ngan = $18,
			area_sqwa = $19,
			perimeter = $20,
			latitude = $21,
			longitude = $22,
			usage_text = NULLIF($23, ''),
			land_use = $24,
			risk_remark = $25,
			boundary_type = NULLIF($26, ''),
			target_fid = $27,
			occupation_year = $28,
			data_issues = NULLIF($29, ''),
			geometry_digest = NULLIF($30, ''),
			status = $31,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	args := append([]any{p.ID}, parcelArgs(p)...)
	err := r.q.QueryRow(ctx, query, args...).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("parcel %d not found", p.ID)
		}
		return fmt.Errorf("failed to update parcel %s: %w", p.Code, translateError(err))
	}
	return nil
}

func (r *parcelRepository) Rename(ctx context.Context, id int64, code string, clearIssues bool) error {
	query := `
		UPDATE parcels SET
			code = $2,
			data_issues = CASE WHEN $3 THEN NULL ELSE data_issues END,
			status = CASE WHEN $3 THEN 'surveyed' ELSE status END,
			updated_at = now()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, id, code, clearIssues)
	if err != nil {
		return fmt.Errorf("failed to rename parcel %d to %s: %w", id, code, translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("parcel %d not found", id)
	}
	return nil
}

func (r *parcelRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM parcels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete parcel %d: %w", id, err)
	}
	return nil
}

func (r *parcelRepository) List(ctx context.Context) ([]models.Parcel, error) {
	query := `SELECT` + parcelColumns + `
		FROM parcels
		ORDER BY id`

	return r.queryParcels(ctx, query)
}

func (r *parcelRepository) ListByLandholder(ctx context.Context, landholderID int64) ([]models.Parcel, error) {
	query := `SELECT` + parcelColumns + `
		FROM parcels
		WHERE landholder_id = $1
		ORDER BY code`

	return r.queryParcels(ctx, query, landholderID)
}

func (r *parcelRepository) queryParcels(ctx context.Context, query string, args ...any) ([]models.Parcel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcels: %w", err)
	}
	defer rows.Close()

	parcels := make([]models.Parcel, 0)
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parcel row: %w", err)
		}
		parcels = append(parcels, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parcel rows: %w", err)
	}

	return parcels, nil
}
