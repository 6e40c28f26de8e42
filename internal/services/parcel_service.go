package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/repository"
)

// Service-level errors
var (
	ErrInvalidCode        = errors.New("code is required")
	ErrParcelNotFound     = errors.New("parcel not found")
	ErrLandholderNotFound = errors.New("landholder not found")
)

// ParcelDetail is a parcel together with its landholder, if it has one.
type ParcelDetail struct {
	Parcel     models.Parcel      `json:"parcel"`
	Landholder *models.Landholder `json:"landholder,omitempty"`
}

// LandholderDetail is a landholder together with every parcel it holds.
type LandholderDetail struct {
	Landholder models.Landholder `json:"landholder"`
	Parcels    []models.Parcel   `json:"parcels"`
}

// ParcelService defines the read-side operations over reconciled records.
type ParcelService interface {
	// GetParcel retrieves a parcel by its presentation code along with its landholder.
	// Returns ErrInvalidCode for a blank code and ErrParcelNotFound when nothing matches.
	GetParcel(ctx context.Context, code string) (*ParcelDetail, error)

	// GetLandholder retrieves a landholder by code along with its parcels.
	// Returns ErrInvalidCode for a blank code and ErrLandholderNotFound when nothing matches.
	GetLandholder(ctx context.Context, code string) (*LandholderDetail, error)
}

// parcelService is the concrete implementation of ParcelService.
type parcelService struct {
	parcels     repository.ParcelRepository
	landholders repository.LandholderRepository
	log         *logger.Logger
}

// NewParcelService creates a new instance of ParcelService.
func NewParcelService(parcels repository.ParcelRepository, landholders repository.LandholderRepository, log *logger.Logger) ParcelService {
	return &parcelService{
		parcels:     parcels,
		landholders: landholders,
		log:         log,
	}
}

func (s *parcelService) GetParcel(ctx context.Context, code string) (*ParcelDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	parcel, err := s.parcels.FindByCode(ctx, code)
	if err != nil {
		s.log.Error("Failed to query parcel", err, map[string]interface{}{
			"code": code,
		})
		return nil, fmt.Errorf("failed to query parcel: %w", err)
	}
	if parcel == nil {
		s.log.Debug("No parcel found", map[string]interface{}{
			"code": code,
		})
		return nil, fmt.Errorf("%w: %s", ErrParcelNotFound, code)
	}

	detail := &ParcelDetail{Parcel: *parcel}
	if parcel.LandholderID != nil {
		holder, err := s.landholders.FindByID(ctx, *parcel.LandholderID)
		if err != nil {
			s.log.Error("Failed to query landholder", err, map[string]interface{}{
				"code":          code,
				"landholder_id": *parcel.LandholderID,
			})
			return nil, fmt.Errorf("failed to query landholder: %w", err)
		}
		detail.Landholder = holder
	}

	return detail, nil
}

func (s *parcelService) GetLandholder(ctx context.Context, code string) (*LandholderDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	holder, err := s.landholders.FindByCode(ctx, code)
	if err != nil {
		s.log.Error("Failed to query landholder", err, map[string]interface{}{
			"code": code,
		})
		return nil, fmt.Errorf("failed to query landholder: %w", err)
	}
	if holder == nil {
		s.log.Debug("No landholder found", map[string]interface{}{
			"code": code,
		})
		return nil, fmt.Errorf("%w: %s", ErrLandholderNotFound, code)
	}

	parcels, err := s.parcels.ListByLandholder(ctx, holder.ID)
	if err != nil {
		s.log.Error("Failed to list landholder parcels", err, map[string]interface{}{
			"code":          code,
			"landholder_id": holder.ID,
		})
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	if parcels == nil {
		parcels = []models.Parcel{}
	}

	return &LandholderDetail{Landholder: *holder, Parcels: parcels}, nil
}
