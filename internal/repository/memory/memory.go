// Package memory implements repository.Storage with process-local maps.
//
// One mutex guards every map and id counter. Values are copied on the way
// in and out, so callers can never mutate stored state through a returned
// pointer.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
)

var _ repository.Storage = (*Store)(nil)

// Store is the in-memory storage backend. The zero value is not usable;
// call New.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users    map[int64]model.User
	avatars  map[int64]model.Avatar
	grids    map[int64]model.Grid
	regions  map[int64]model.Region
	settings map[string]model.Setting

	// Counters only move forward, so deleted ids are never reused.
	userID, avatarID, gridID, regionID, settingID int64
}

// New returns an empty store. Use seed.Sample to load demo data.
func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]model.User),
		avatars:  make(map[int64]model.Avatar),
		grids:    make(map[int64]model.Grid),
		regions:  make(map[int64]model.Region),
		settings: make(map[string]model.Setting),
	}
}

// Close is a no-op; it exists to satisfy repository.Storage.
func (s *Store) Close() error { return nil }

// sortedIDs returns the keys of m in ascending order.
func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// =========================================================================
// USERS
// =========================================================================

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := u.Clone()
	return &out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range sortedIDs(s.users) {
		if u := s.users[id]; u.Email == email {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (s *Store) GetAllUsers(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.User, 0, len(s.users))
	for _, id := range sortedIDs(s.users) {
		out = append(out, s.users[id].Clone())
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, in model.InsertUser) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == in.Username {
			return nil, repository.UsernameTaken(in.Username)
		}
	}

	s.userID++
	u := model.NewUser(in, s.now())
	u.ID = s.userID
	s.users[u.ID] = u.Clone()
	return &u, nil
}

// =========================================================================
// AVATARS
// =========================================================================

func (s *Store) GetAvatar(_ context.Context, id int64) (*model.Avatar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.avatars[id]
	if !ok {
		return nil, apperror.NotFound("avatar", id)
	}
	return &a, nil
}

func (s *Store) GetAvatarsByUser(_ context.Context, userID int64) ([]model.Avatar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Avatar{}
	for _, id := range sortedIDs(s.avatars) {
		if a := s.avatars[id]; a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) CreateAvatar(_ context.Context, in model.InsertAvatar) (*model.Avatar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.avatarID++
	a := model.Avatar{
		ID:         s.avatarID,
		UserID:     in.UserID,
		AvatarType: in.AvatarType,
		Name:       in.Name,
		Created:    s.now(),
	}
	s.avatars[a.ID] = a
	return &a, nil
}

// =========================================================================
// GRIDS
// =========================================================================

func (s *Store) GetGrid(_ context.Context, id int64) (*model.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grids[id]
	if !ok {
		return nil, apperror.NotFound("grid", id)
	}
	out := g.Clone()
	return &out, nil
}

func (s *Store) GetAllGrids(_ context.Context) ([]model.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Grid, 0, len(s.grids))
	for _, id := range sortedIDs(s.grids) {
		out = append(out, s.grids[id].Clone())
	}
	return out, nil
}

func (s *Store) CreateGrid(_ context.Context, in model.InsertGrid) (*model.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := model.NewGrid(in, s.now())
	if err := repository.CheckGrid(g); err != nil {
		return nil, err
	}
	s.gridID++
	g.ID = s.gridID
	s.grids[g.ID] = g.Clone()
	return &g, nil
}

func (s *Store) UpdateGrid(_ context.Context, id int64, patch model.GridPatch) (*model.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grids[id]
	if !ok {
		return nil, apperror.NotFound("grid", id)
	}
	g.Apply(patch)
	if err := repository.CheckGrid(g); err != nil {
		return nil, err
	}
	s.grids[id] = g.Clone()
	return &g, nil
}

func (s *Store) DeleteGrid(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.grids[id]; !ok {
		return apperror.NotFound("grid", id)
	}
	delete(s.grids, id)
	return nil
}

// =========================================================================
// REGIONS
// =========================================================================

func (s *Store) GetRegion(_ context.Context, id int64) (*model.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.regions[id]
	if !ok {
		return nil, apperror.NotFound("region", id)
	}
	out := r.Clone()
	return &out, nil
}

func (s *Store) GetRegionsByGrid(_ context.Context, gridID int64) ([]model.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Region{}
	for _, id := range sortedIDs(s.regions) {
		if r := s.regions[id]; r.GridID == gridID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *Store) GetAllRegions(_ context.Context) ([]model.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Region, 0, len(s.regions))
	for _, id := range sortedIDs(s.regions) {
		out = append(out, s.regions[id].Clone())
	}
	return out, nil
}

func (s *Store) CreateRegion(_ context.Context, in model.InsertRegion) (*model.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.regionID++
	r := model.NewRegion(in)
	r.ID = s.regionID
	s.regions[r.ID] = r.Clone()
	return &r, nil
}

func (s *Store) UpdateRegion(_ context.Context, id int64, patch model.RegionPatch) (*model.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.regions[id]
	if !ok {
		return nil, apperror.NotFound("region", id)
	}
	r.Apply(patch)
	s.regions[id] = r.Clone()
	return &r, nil
}

func (s *Store) DeleteRegion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.regions[id]; !ok {
		return apperror.NotFound("region", id)
	}
	delete(s.regions, id)
	return nil
}

// =========================================================================
// SETTINGS
// =========================================================================

func (s *Store) GetSetting(_ context.Context, key string) (*model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[key]
	if !ok {
		return nil, apperror.NotFound("setting", key)
	}
	return &st, nil
}

func (s *Store) GetAllSettings(_ context.Context) ([]model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateSetting(_ context.Context, in model.InsertSetting) (*model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settings[in.Key]; ok {
		return nil, apperror.Conflict("setting", in.Key)
	}
	return s.insertSettingLocked(in.Key, in.Value), nil
}

func (s *Store) UpdateSetting(_ context.Context, key, value string) (*model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[key]
	if !ok {
		return nil, apperror.NotFound("setting", key)
	}
	st.Value = value
	st.LastUpdated = s.now()
	s.settings[key] = st
	return &st, nil
}

func (s *Store) DeleteSetting(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settings[key]; !ok {
		return apperror.NotFound("setting", key)
	}
	delete(s.settings, key)
	return nil
}

func (s *Store) UpsertSetting(_ context.Context, key, value string) (*model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[key]
	if !ok {
		return s.insertSettingLocked(key, value), nil
	}
	st.Value = value
	st.LastUpdated = s.now()
	s.settings[key] = st
	return &st, nil
}

// insertSettingLocked must be called with s.mu held.
func (s *Store) insertSettingLocked(key, value string) *model.Setting {
	s.settingID++
	st := model.Setting{
		ID:          s.settingID,
		Key:         key,
		Value:       value,
		LastUpdated: s.now(),
	}
	s.settings[key] = st
	return &st
}
