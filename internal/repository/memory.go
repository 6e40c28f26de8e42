package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stwalsh4118/landsync/internal/models"
)

// MemoryStore keeps landholders and parcels in memory when no database is configured.
// WithinTx works on a copy of the data and swaps it in only on success, so a failed
// batch leaves the store unchanged just like a rolled-back database transaction.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

type memoryData struct {
	landholders      map[int64]models.Landholder
	parcels          map[int64]models.Parcel
	nextLandholderID int64
	nextParcelID     int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		landholders: map[int64]models.Landholder{},
		parcels:     map[int64]models.Parcel{},
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		landholders:      make(map[int64]models.Landholder, len(d.landholders)),
		parcels:          make(map[int64]models.Parcel, len(d.parcels)),
		nextLandholderID: d.nextLandholderID,
		nextParcelID:     d.nextParcelID,
	}
	for id, l := range d.landholders {
		c.landholders[id] = l
	}
	for id, p := range d.parcels {
		c.parcels[id] = p
	}
	return c
}

// Landholders returns a repository reading and writing the committed data.
func (s *MemoryStore) Landholders() LandholderRepository {
	return memoryLandholders{lock: &s.mu, load: s.current}
}

// Parcels returns a repository reading and writing the committed data.
func (s *MemoryStore) Parcels() ParcelRepository {
	return memoryParcels{lock: &s.mu, load: s.current}
}

func (s *MemoryStore) current() *memoryData { return s.data }

// WithinTx runs fn against a private copy of the data. Concurrent transactions are serialized.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	tx := memoryTx{load: func() *memoryData { return working }}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = working
	return nil
}

type memoryTx struct {
	load func() *memoryData
}

func (t memoryTx) Landholders() LandholderRepository {
	return memoryLandholders{lock: noLock{}, load: t.load}
}

func (t memoryTx) Parcels() ParcelRepository {
	return memoryParcels{lock: noLock{}, load: t.load}
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

type memoryLandholders struct {
	lock sync.Locker
	load func() *memoryData
}

func (r memoryLandholders) FindByCode(_ context.Context, code string) (*models.Landholder, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	// Codes are not unique for placeholders; the oldest record wins, as with ORDER BY id.
	var found *models.Landholder
	for _, l := range r.load().landholders {
		if l.Code != code {
			continue
		}
		if found == nil || l.ID < found.ID {
			l := l
			found = &l
		}
	}
	return found, nil
}

func (r memoryLandholders) FindByID(_ context.Context, id int64) (*models.Landholder, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	l, ok := r.load().landholders[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r memoryLandholders) Insert(_ context.Context, l *models.Landholder) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	d := r.load()
	d.nextLandholderID++
	now := time.Now().UTC()
	l.ID = d.nextLandholderID
	l.CreatedAt, l.UpdatedAt = now, now
	d.landholders[l.ID] = *l
	return nil
}

func (r memoryLandholders) Update(_ context.Context, l *models.Landholder) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	d := r.load()
	existing, ok := d.landholders[l.ID]
	if !ok {
		return fmt.Errorf("landholder %d not found", l.ID)
	}
	l.CreatedAt = existing.CreatedAt
	l.UpdatedAt = time.Now().UTC()
	d.landholders[l.ID] = *l
	return nil
}

type memoryParcels struct {
	lock sync.Locker
	load func() *memoryData
}

func (r memoryParcels) FindByCode(_ context.Context, code string) (*models.Parcel, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if p, ok := r.byCode(code); ok {
		return &p, nil
	}
	return nil, nil
}

func (r memoryParcels) byCode(code string) (models.Parcel, bool) {
	for _, p := range r.load().parcels {
		if p.Code == code {
			return p, true
		}
	}
	return models.Parcel{}, false
}

func (r memoryParcels) Insert(_ context.Context, p *models.Parcel) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, taken := r.byCode(p.Code); taken {
		return fmt.Errorf("parcel %s: %w", p.Code, ErrDuplicateKey)
	}

	d := r.load()
	d.nextParcelID++
	now := time.Now().UTC()
	p.ID = d.nextParcelID
	p.CreatedAt, p.UpdatedAt = now, now
	d.parcels[p.ID] = *p
	return nil
}

func (r memoryParcels) Update(_ context.Context, p *models.Parcel) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	d := r.load()
	existing, ok := d.parcels[p.ID]
	if !ok {
		return fmt.Errorf("parcel %d not found", p.ID)
	}
	if other, taken := r.byCode(p.Code); taken && other.ID != p.ID {
		return fmt.Errorf("parcel %s: %w", p.Code, ErrDuplicateKey)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	d.parcels[p.ID] = *p
	return nil
}

func (r memoryParcels) Rename(_ context.Context, id int64, code string, clearIssues bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	d := r.load()
	p, ok := d.parcels[id]
	if !ok {
		return fmt.Errorf("parcel %d not found", id)
	}
	if other, taken := r.byCode(code); taken && other.ID != id {
		return fmt.Errorf("parcel %s: %w", code, ErrDuplicateKey)
	}
	p.Code = code
	if clearIssues {
		p.DataIssues = ""
		p.Status = models.StatusSurveyed
	}
	p.UpdatedAt = time.Now().UTC()
	d.parcels[id] = p
	return nil
}

func (r memoryParcels) Delete(_ context.Context, id int64) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.load().parcels, id)
	return nil
}

func (r memoryParcels) List(_ context.Context) ([]models.Parcel, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	all := make([]models.Parcel, 0, len(r.load().parcels))
	for _, p := range r.load().parcels {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r memoryParcels) ListByLandholder(_ context.Context, landholderID int64) ([]models.Parcel, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var out []models.Parcel
	for _, p := range r.load().parcels {
		if p.LandholderID != nil && *p.LandholderID == landholderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
