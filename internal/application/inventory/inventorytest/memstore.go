// Package inventorytest provee un libro de stock en memoria que implementa los mismos
// puertos que el adaptador PostgreSQL, para tests de casos de uso.
package inventorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

var _ appinv.TxRunner = (*Store)(nil)

type state struct {
	batches   map[string]*entity.StockBatch
	movements map[string]*entity.StockMovement
	order     []string // IDs de movimientos en orden de inserción
	links     []*entity.StockBatchMovement
	products  map[string]*entity.Product
	locations map[string]*entity.StorageLocation
	users     map[string]*entity.User
	sessions  map[string]*entity.PhotoSession
	configs   []*entity.LocationConfig
}

// snapshot copia los índices; las entidades guardadas nunca se mutan en sitio.
func (s *state) snapshot() *state {
	c := &state{
		batches:   make(map[string]*entity.StockBatch, len(s.batches)),
		movements: make(map[string]*entity.StockMovement, len(s.movements)),
		order:     append([]string(nil), s.order...),
		links:     append([]*entity.StockBatchMovement(nil), s.links...),
		products:  s.products,
		locations: s.locations,
		users:     s.users,
		sessions:  s.sessions,
		configs:   s.configs,
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = v
	}
	return c
}

// Store libro en memoria. Run serializa las unidades de trabajo con un mutex,
// equivalente a que todas tomen el mismo bloqueo de fila.
type Store struct {
	mu sync.Mutex
	st *state

	// OnGetForUpdate recibe la fila guardada justo después de bloquear un lote.
	OnGetForUpdate func(stored *entity.StockBatch)
	// Commits cuenta las unidades de trabajo confirmadas.
	Commits int
}

// NewStore crea un libro vacío.
func NewStore() *Store {
	return &Store{st: &state{
		batches:   map[string]*entity.StockBatch{},
		movements: map[string]*entity.StockMovement{},
		products:  map[string]*entity.Product{},
		locations: map[string]*entity.StorageLocation{},
		users:     map[string]*entity.User{},
		sessions:  map[string]*entity.PhotoSession{},
	}}
}

// Run ejecuta fn con repositorios atados a la unidad de trabajo; revierte todo si fn falla.
func (s *Store) Run(_ context.Context, fn func(tx appinv.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.st.snapshot()
	if err := fn(s.tx(true)); err != nil {
		s.st = before
		return err
	}
	s.Commits++
	return nil
}

func (s *Store) tx(inTx bool) appinv.Tx {
	return appinv.Tx{
		Batches:   &batchRepo{s: s, inTx: inTx},
		Movements: &movementRepo{s: s, inTx: inTx},
		Links:     &linkRepo{s: s, inTx: inTx},
		Products:  &productRepo{s: s, inTx: inTx},
		Locations: &locationRepo{s: s, inTx: inTx},
		Users:     &userRepo{s: s, inTx: inTx},
	}
}

// Repos devuelve repositorios fuera de transacción (equivalente al pool).
func (s *Store) Repos() appinv.Tx { return s.tx(false) }

// Sessions repositorio de sesiones fotográficas.
func (s *Store) Sessions() repository.PhotoSessionRepository { return &sessionRepo{s: s} }

// Configs repositorio de configuraciones de ubicación.
func (s *Store) Configs() repository.LocationConfigRepository { return &configRepo{s: s} }

func (s *Store) view(inTx bool, fn func(st *state)) {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(s.st)
}

// ---- Semillas y lectura directa para tests ----

// AddProduct registra un producto.
func (s *Store) AddProduct(p entity.Product) { s.view(false, func(st *state) { st.products[p.ID] = &p }) }

// AddLocation registra una ubicación.
func (s *Store) AddLocation(l entity.StorageLocation) {
	s.view(false, func(st *state) { st.locations[l.ID] = &l })
}

// AddUser registra un usuario.
func (s *Store) AddUser(u entity.User) { s.view(false, func(st *state) { st.users[u.ID] = &u }) }

// AddSession registra una sesión fotográfica.
func (s *Store) AddSession(ps entity.PhotoSession) {
	s.view(false, func(st *state) { st.sessions[ps.ID] = &ps })
}

// AddConfig registra una configuración de ubicación.
func (s *Store) AddConfig(c entity.LocationConfig) {
	s.view(false, func(st *state) { st.configs = append(st.configs, &c) })
}

// AddBatch inserta un lote tal cual (sin pasar por el motor).
func (s *Store) AddBatch(b entity.StockBatch) {
	if b.Version == 0 {
		b.Version = 1
	}
	s.view(false, func(st *state) { st.batches[b.ID] = b.Clone() })
}

// Batch devuelve una copia del lote o nil.
func (s *Store) Batch(id string) *entity.StockBatch {
	var out *entity.StockBatch
	s.view(false, func(st *state) {
		if b, ok := st.batches[id]; ok {
			out = b.Clone()
		}
	})
	return out
}

// Batches devuelve todos los lotes ordenados por ciclo y creación.
func (s *Store) Batches() []*entity.StockBatch {
	var out []*entity.StockBatch
	s.view(false, func(st *state) {
		for _, b := range st.batches {
			out = append(out, b.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CycleNumber != out[j].CycleNumber {
			return out[i].CycleNumber < out[j].CycleNumber
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Movements devuelve todos los movimientos en orden de creación.
func (s *Store) Movements() []*entity.StockMovement {
	var out []*entity.StockMovement
	s.view(false, func(st *state) {
		for _, id := range st.order {
			c := *st.movements[id]
			out = append(out, &c)
		}
	})
	return out
}

// Links devuelve todos los enlaces en orden de inserción.
func (s *Store) Links() []*entity.StockBatchMovement {
	var out []*entity.StockBatchMovement
	s.view(false, func(st *state) {
		for _, l := range st.links {
			c := *l
			out = append(out, &c)
		}
	})
	return out
}

// LinksFor devuelve los enlaces de un lote en orden de inserción.
func (s *Store) LinksFor(batchID string) []*entity.StockBatchMovement {
	var out []*entity.StockBatchMovement
	for _, l := range s.Links() {
		if l.BatchID == batchID {
			out = append(out, l)
		}
	}
	return out
}

// ---- StockBatchRepository ----

type batchRepo struct {
	s    *Store
	inTx bool
}

var _ repository.StockBatchRepository = (*batchRepo)(nil)

func (r *batchRepo) Create(_ context.Context, b *entity.StockBatch) error {
	var err error
	r.s.view(r.inTx, func(st *state) {
		if _, ok := st.batches[b.ID]; ok {
			err = domain.ErrDuplicate
			return
		}
		for _, o := range st.batches {
			if o.CompanyID == b.CompanyID && o.BatchCode == b.BatchCode {
				err = domain.ErrDuplicate
				return
			}
			// uq_stock_batches_active_cycle
			if b.CycleEndAt == nil && o.CycleEndAt == nil && sameKey(o, b.Key()) {
				err = domain.ErrDuplicate
				return
			}
		}
		st.batches[b.ID] = b.Clone()
	})
	return err
}

func (r *batchRepo) get(companyID, id string) (*entity.StockBatch, error) {
	var out *entity.StockBatch
	r.s.view(r.inTx, func(st *state) {
		if b, ok := st.batches[id]; ok && b.CompanyID == companyID {
			out = b.Clone()
		}
	})
	if out == nil {
		return nil, domain.NewNotFound("stock_batch", id)
	}
	return out, nil
}

func (r *batchRepo) GetByID(_ context.Context, companyID, id string) (*entity.StockBatch, error) {
	return r.get(companyID, id)
}

func (r *batchRepo) GetForUpdate(_ context.Context, companyID, id string) (*entity.StockBatch, error) {
	out, err := r.get(companyID, id)
	if err != nil {
		return nil, err
	}
	// El hook simula una escritura concurrente entre la lectura y la actualización.
	if hook := r.s.OnGetForUpdate; hook != nil {
		r.s.view(r.inTx, func(st *state) {
			updated := st.batches[id].Clone()
			hook(updated)
			st.batches[id] = updated
		})
	}
	return out, nil
}

func (r *batchRepo) GetByCode(_ context.Context, companyID, code string) (*entity.StockBatch, error) {
	var out *entity.StockBatch
	r.s.view(r.inTx, func(st *state) {
		for _, b := range st.batches {
			if b.CompanyID == companyID && b.BatchCode == code {
				out = b.Clone()
				return
			}
		}
	})
	if out == nil {
		return nil, domain.NewNotFound("stock_batch", code)
	}
	return out, nil
}

func sameKey(b *entity.StockBatch, k entity.CycleKey) bool {
	return b.CompanyID == k.CompanyID &&
		b.StorageLocationID == k.LocationID &&
		b.ProductID == k.ProductID &&
		b.ProductState == k.ProductState &&
		eqPtr(b.ProductSizeID, k.ProductSizeID) &&
		eqPtr(b.PackagingCatalogID, k.PackagingCatalogID)
}

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *batchRepo) FindActiveForCycle(_ context.Context, key entity.CycleKey) (*entity.StockBatch, error) {
	var out *entity.StockBatch
	r.s.view(r.inTx, func(st *state) {
		for _, b := range st.batches {
			if b.CycleEndAt == nil && sameKey(b, key) {
				if out == nil || b.CycleNumber > out.CycleNumber {
					out = b.Clone()
				}
			}
		}
	})
	return out, nil
}

func (r *batchRepo) LatestCycleNumber(_ context.Context, key entity.CycleKey) (int, error) {
	latest := 0
	r.s.view(r.inTx, func(st *state) {
		for _, b := range st.batches {
			if sameKey(b, key) && b.CycleNumber > latest {
				latest = b.CycleNumber
			}
		}
	})
	return latest, nil
}

func (r *batchRepo) List(_ context.Context, f repository.BatchFilter) ([]*entity.StockBatch, error) {
	var out []*entity.StockBatch
	r.s.view(r.inTx, func(st *state) {
		for _, b := range st.batches {
			if b.CompanyID != f.CompanyID ||
				(f.ProductID != "" && b.ProductID != f.ProductID) ||
				(f.LocationID != "" && b.StorageLocationID != f.LocationID) ||
				(f.Status != "" && b.Status != f.Status) ||
				(f.ActiveOnly && b.CycleEndAt != nil) {
				continue
			}
			out = append(out, b.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *batchRepo) write(b *entity.StockBatch, apply func(stored *entity.StockBatch)) error {
	var err error
	r.s.view(r.inTx, func(st *state) {
		stored, ok := st.batches[b.ID]
		if !ok {
			err = domain.NewNotFound("stock_batch", b.ID)
			return
		}
		if stored.Version != b.Version {
			err = domain.ErrConcurrentUpdate
			return
		}
		updated := stored.Clone()
		apply(updated)
		updated.Version++
		st.batches[b.ID] = updated
		b.Version = updated.Version
	})
	return err
}

func (r *batchRepo) UpdateQuantity(_ context.Context, b *entity.StockBatch) error {
	return r.write(b, func(stored *entity.StockBatch) {
		stored.QuantityCurrent = b.QuantityCurrent
		stored.Status = b.Status
		stored.UpdatedAt = b.UpdatedAt
	})
}

func (r *batchRepo) Close(_ context.Context, b *entity.StockBatch, endAt time.Time) error {
	err := r.write(b, func(stored *entity.StockBatch) {
		stored.CycleEndAt = &endAt
		stored.Status = entity.BatchStatusInactive
		stored.UpdatedAt = endAt
	})
	if err == nil {
		b.CycleEndAt = &endAt
		b.Status = entity.BatchStatusInactive
		b.UpdatedAt = endAt
	}
	return err
}

// ---- StockMovementRepository ----

type movementRepo struct {
	s    *Store
	inTx bool
}

var _ repository.StockMovementRepository = (*movementRepo)(nil)

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	var err error
	r.s.view(r.inTx, func(st *state) {
		if _, ok := st.movements[m.ID]; ok {
			err = domain.ErrDuplicate
			return
		}
		c := *m
		st.movements[m.ID] = &c
		st.order = append(st.order, m.ID)
	})
	return err
}

func (r *movementRepo) GetByID(_ context.Context, companyID, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	r.s.view(r.inTx, func(st *state) {
		if m, ok := st.movements[id]; ok && m.CompanyID == companyID {
			c := *m
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NewNotFound("stock_movement", id)
	}
	return out, nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	r.s.view(r.inTx, func(st *state) {
		var touches map[string]bool
		if f.BatchID != "" {
			touches = map[string]bool{}
			for _, l := range st.links {
				if l.BatchID == f.BatchID {
					touches[l.MovementID] = true
				}
			}
		}
		for _, m := range st.movements {
			if m.CompanyID != f.CompanyID ||
				(f.Type != "" && m.Type != f.Type) ||
				(f.ReferenceID != "" && (m.ReferenceID == nil || *m.ReferenceID != f.ReferenceID)) ||
				(touches != nil && !touches[m.ID]) ||
				(f.From != nil && m.PerformedAt.Before(*f.From)) ||
				(f.To != nil && m.PerformedAt.After(*f.To)) {
				continue
			}
			c := *m
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PerformedAt.Equal(out[j].PerformedAt) {
			return out[i].PerformedAt.After(out[j].PerformedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *movementRepo) ExistsByReference(_ context.Context, companyID string, t entity.MovementType, referenceID string) (bool, error) {
	found := false
	r.s.view(r.inTx, func(st *state) {
		for _, m := range st.movements {
			if m.CompanyID == companyID && m.Type == t && m.ReferenceID != nil && *m.ReferenceID == referenceID {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *movementRepo) SummaryByType(_ context.Context, companyID string, from, to *time.Time) ([]repository.MovementSummaryRow, error) {
	type key struct {
		t  entity.MovementType
		in bool
	}
	acc := map[key]*repository.MovementSummaryRow{}
	r.s.view(r.inTx, func(st *state) {
		for _, m := range st.movements {
			if m.CompanyID != companyID ||
				(from != nil && m.PerformedAt.Before(*from)) ||
				(to != nil && m.PerformedAt.After(*to)) {
				continue
			}
			k := key{m.Type, m.IsInbound}
			row, ok := acc[k]
			if !ok {
				row = &repository.MovementSummaryRow{Type: m.Type, IsInbound: m.IsInbound, Quantity: decimal.Zero}
				acc[k] = row
			}
			row.Count++
			row.Quantity = row.Quantity.Add(m.Quantity)
		}
	})
	out := make([]repository.MovementSummaryRow, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return !out[i].IsInbound && out[j].IsInbound
	})
	return out, nil
}

// ---- StockBatchMovementRepository ----

type linkRepo struct {
	s    *Store
	inTx bool
}

var _ repository.StockBatchMovementRepository = (*linkRepo)(nil)

func (r *linkRepo) Create(_ context.Context, l *entity.StockBatchMovement) error {
	var err error
	r.s.view(r.inTx, func(st *state) {
		if _, ok := st.movements[l.MovementID]; !ok {
			err = domain.NewNotFound("stock_movement", l.MovementID)
			return
		}
		if _, ok := st.batches[l.BatchID]; !ok {
			err = domain.NewNotFound("stock_batch", l.BatchID)
			return
		}
		c := *l
		st.links = append(st.links, &c)
	})
	return err
}

func (r *linkRepo) list(match func(*entity.StockBatchMovement) bool) []*entity.StockBatchMovement {
	var out []*entity.StockBatchMovement
	r.s.view(r.inTx, func(st *state) {
		for _, l := range st.links {
			if match(l) {
				c := *l
				out = append(out, &c)
			}
		}
	})
	return out
}

func (r *linkRepo) ListByMovement(_ context.Context, movementID string) ([]*entity.StockBatchMovement, error) {
	out := r.list(func(l *entity.StockBatchMovement) bool { return l.MovementID == movementID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].MovementOrder < out[j].MovementOrder })
	return out, nil
}

func (r *linkRepo) ListByBatch(_ context.Context, batchID string) ([]*entity.StockBatchMovement, error) {
	return r.list(func(l *entity.StockBatchMovement) bool { return l.BatchID == batchID }), nil
}

// ---- Colaboradores (solo lectura) ----

type lookup struct {
	s    *Store
	inTx bool
}

type productRepo lookup
type locationRepo lookup
type userRepo lookup
type sessionRepo lookup
type configRepo lookup

var (
	_ repository.ProductRepository         = (*productRepo)(nil)
	_ repository.StorageLocationRepository = (*locationRepo)(nil)
	_ repository.UserRepository            = (*userRepo)(nil)
	_ repository.PhotoSessionRepository    = (*sessionRepo)(nil)
	_ repository.LocationConfigRepository  = (*configRepo)(nil)
)

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.s.view(r.inTx, func(st *state) {
		if p, ok := st.products[id]; ok {
			c := *p
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NewNotFound("product", id)
	}
	return out, nil
}

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.StorageLocation, error) {
	var out *entity.StorageLocation
	r.s.view(r.inTx, func(st *state) {
		if l, ok := st.locations[id]; ok {
			c := *l
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NewNotFound("storage_location", id)
	}
	return out, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	r.s.view(r.inTx, func(st *state) {
		if u, ok := st.users[id]; ok {
			c := *u
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NewNotFound("user", id)
	}
	return out, nil
}

func (r *sessionRepo) GetByID(_ context.Context, companyID, id string) (*entity.PhotoSession, error) {
	var out *entity.PhotoSession
	r.s.view(r.inTx, func(st *state) {
		if ps, ok := st.sessions[id]; ok && ps.CompanyID == companyID {
			c := *ps
			c.Estimations = append([]entity.Estimation(nil), ps.Estimations...)
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NewNotFound("photo_session", id)
	}
	return out, nil
}

func (r *configRepo) ListActiveByLocation(_ context.Context, locationID string) ([]*entity.LocationConfig, error) {
	var out []*entity.LocationConfig
	r.s.view(r.inTx, func(st *state) {
		for _, c := range st.configs {
			if c.StorageLocationID == locationID && c.Active {
				cc := *c
				out = append(out, &cc)
			}
		}
	})
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
