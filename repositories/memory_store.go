package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/google/uuid"
)

type memoryTournamentRow struct {
	models.Tournament
	seq int64
}

type memoryMemberRow struct {
	models.Member
	seq int64
}

type memoryData struct {
	seq         int64
	tournaments map[uuid.UUID]memoryTournamentRow
	members     map[uuid.UUID]memoryMemberRow
	matches     map[uuid.UUID]models.Match
	auditLogs   []models.AuditLog
	users       map[uuid.UUID]models.User
}

func newMemoryData() *memoryData {
	return &memoryData{
		tournaments: make(map[uuid.UUID]memoryTournamentRow),
		members:     make(map[uuid.UUID]memoryMemberRow),
		matches:     make(map[uuid.UUID]models.Match),
		users:       make(map[uuid.UUID]models.User),
	}
}

func (d *memoryData) nextSeq() int64 {
	d.seq++
	return d.seq
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		seq:         d.seq,
		tournaments: make(map[uuid.UUID]memoryTournamentRow, len(d.tournaments)),
		members:     make(map[uuid.UUID]memoryMemberRow, len(d.members)),
		matches:     make(map[uuid.UUID]models.Match, len(d.matches)),
		auditLogs:   append([]models.AuditLog(nil), d.auditLogs...),
		users:       make(map[uuid.UUID]models.User, len(d.users)),
	}
	for k, v := range d.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range d.members {
		c.members[k] = v
	}
	for k, v := range d.matches {
		c.matches[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

// memoryAccess runs a callback against either the live data set or the
// private copy owned by a transaction.
type memoryAccess interface {
	read(ctx context.Context, fn func(d *memoryData) error) error
	write(ctx context.Context, fn func(d *memoryData) error) error
}

// MemoryStore keeps everything in process memory. Transactions and writes are
// serialized by one lock, so every WithinTx call behaves like a SERIALIZABLE
// transaction: it works on a copy that replaces the live data on commit.
type MemoryStore struct {
	*memoryRepositories

	writeLock chan struct{}
	mu        sync.RWMutex
	data      *memoryData
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		writeLock: make(chan struct{}, 1),
		data:      newMemoryData(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.memoryRepositories = newMemoryRepositories(s, s.clock)
	return s
}

func (s *MemoryStore) clock() time.Time {
	return s.now()
}

func (s *MemoryStore) acquire(ctx context.Context) error {
	select {
	case s.writeLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemoryStore) release() {
	<-s.writeLock
}

func (s *MemoryStore) read(ctx context.Context, fn func(d *memoryData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *MemoryStore) write(ctx context.Context, fn func(d *memoryData) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Repositories) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	if err := fn(newMemoryRepositories(&memoryTx{ctx: ctx, data: work}, s.clock)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

type memoryTx struct {
	ctx  context.Context
	data *memoryData
}

func (tx *memoryTx) read(ctx context.Context, fn func(d *memoryData) error) error {
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(tx.data)
}

func (tx *memoryTx) write(ctx context.Context, fn func(d *memoryData) error) error {
	return tx.read(ctx, fn)
}

type memoryRepositories struct {
	tournaments *memoryTournamentRepository
	members     *memoryMemberRepository
	matches     *memoryMatchRepository
	auditLogs   *memoryAuditLogRepository
	users       *memoryUserRepository
}

func newMemoryRepositories(access memoryAccess, now func() time.Time) *memoryRepositories {
	return &memoryRepositories{
		tournaments: &memoryTournamentRepository{access: access, now: now},
		members:     &memoryMemberRepository{access: access, now: now},
		matches:     &memoryMatchRepository{access: access, now: now},
		auditLogs:   &memoryAuditLogRepository{access: access, now: now},
		users:       &memoryUserRepository{access: access, now: now},
	}
}

func (r *memoryRepositories) Tournaments() TournamentRepository { return r.tournaments }
func (r *memoryRepositories) Members() MemberRepository         { return r.members }
func (r *memoryRepositories) Matches() MatchRepository          { return r.matches }
func (r *memoryRepositories) AuditLogs() AuditLogRepository     { return r.auditLogs }
func (r *memoryRepositories) Users() UserRepository             { return r.users }

// --- tournaments ---

type memoryTournamentRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return r.access.write(ctx, func(d *memoryData) error {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		now := r.now()
		t.CreatedAt, t.UpdatedAt = now, now

		stored := *t
		stored.MemberCount, stored.Members, stored.Matches = 0, nil, nil
		d.tournaments[t.ID] = memoryTournamentRow{Tournament: stored, seq: d.nextSeq()}
		return nil
	})
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.access.read(ctx, func(d *memoryData) error {
		row, ok := d.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		t := row.Tournament
		out = &t
		return nil
	})
	return out, err
}

// LockForUpdate needs no extra locking: transactions are already serialized.
func (r *memoryTournamentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	err := r.access.read(ctx, func(d *memoryData) error {
		counts := make(map[uuid.UUID]int)
		for _, m := range d.members {
			counts[m.TournamentID]++
		}

		rows := make([]memoryTournamentRow, 0, len(d.tournaments))
		for _, row := range d.tournaments {
			if filter.Status != nil && row.Status != *filter.Status {
				continue
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
				return rows[i].CreatedAt.After(rows[j].CreatedAt)
			}
			return rows[i].seq > rows[j].seq
		})

		if filter.Offset > 0 {
			if filter.Offset >= len(rows) {
				rows = nil
			} else {
				rows = rows[filter.Offset:]
			}
		}
		if filter.Limit > 0 && len(rows) > filter.Limit {
			rows = rows[:filter.Limit]
		}

		for _, row := range rows {
			t := row.Tournament
			t.MemberCount = counts[t.ID]
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) update(ctx context.Context, id uuid.UUID, fn func(t *models.Tournament) error) error {
	return r.access.write(ctx, func(d *memoryData) error {
		row, ok := d.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		if err := fn(&row.Tournament); err != nil {
			return err
		}
		row.UpdatedAt = r.now()
		d.tournaments[id] = row
		return nil
	})
}

func (r *memoryTournamentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.TournamentStatus) error {
	return r.update(ctx, id, func(t *models.Tournament) error {
		if t.Status != from {
			return ErrTournamentStatusConflict
		}
		t.Status = to
		return nil
	})
}

func (r *memoryTournamentRepository) UpdateJoinDeadline(ctx context.Context, id uuid.UUID, deadline time.Time) error {
	return r.update(ctx, id, func(t *models.Tournament) error {
		t.JoinDeadline = deadline
		return nil
	})
}

func (r *memoryTournamentRepository) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL *string) error {
	return r.update(ctx, id, func(t *models.Tournament) error {
		t.ImageURL = imageURL
		return nil
	})
}

func (r *memoryTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.access.write(ctx, func(d *memoryData) error {
		if _, ok := d.tournaments[id]; !ok {
			return ErrTournamentNotFound
		}
		delete(d.tournaments, id)
		for mid, m := range d.members {
			if m.TournamentID == id {
				delete(d.members, mid)
			}
		}
		for mid, m := range d.matches {
			if m.TournamentID == id {
				delete(d.matches, mid)
			}
		}
		return nil
	})
}

// --- members ---

type memoryMemberRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryMemberRepository) Create(ctx context.Context, m *models.Member) error {
	return r.access.write(ctx, func(d *memoryData) error {
		if _, ok := d.tournaments[m.TournamentID]; !ok {
			return ErrMemberTournamentInvalid
		}
		for _, existing := range d.members {
			if existing.TournamentID == m.TournamentID && existing.WalkerID == m.WalkerID {
				return ErrMemberConflict
			}
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.JoinedAt = r.now()
		d.members[m.ID] = memoryMemberRow{Member: *m, seq: d.nextSeq()}
		return nil
	})
}

func (r *memoryMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var out *models.Member
	err := r.access.read(ctx, func(d *memoryData) error {
		row, ok := d.members[id]
		if !ok {
			return ErrMemberNotFound
		}
		m := row.Member
		out = &m
		return nil
	})
	return out, err
}

func (r *memoryMemberRepository) FindByWalker(ctx context.Context, tournamentID uuid.UUID, walkerID int) (*models.Member, error) {
	var out *models.Member
	err := r.access.read(ctx, func(d *memoryData) error {
		for _, row := range d.members {
			if row.TournamentID == tournamentID && row.WalkerID == walkerID {
				m := row.Member
				out = &m
				return nil
			}
		}
		return ErrMemberNotFound
	})
	return out, err
}

func (r *memoryMemberRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Member, error) {
	out := make([]models.Member, 0)
	err := r.access.read(ctx, func(d *memoryData) error {
		rows := make([]memoryMemberRow, 0)
		for _, row := range d.members {
			if row.TournamentID == tournamentID {
				rows = append(rows, row)
			}
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
		for _, row := range rows {
			out = append(out, row.Member)
		}
		return nil
	})
	return out, err
}

func (r *memoryMemberRepository) CountByTournament(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	count := 0
	err := r.access.read(ctx, func(d *memoryData) error {
		for _, row := range d.members {
			if row.TournamentID == tournamentID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *memoryMemberRepository) update(ctx context.Context, id uuid.UUID, fn func(m *models.Member)) error {
	return r.access.write(ctx, func(d *memoryData) error {
		row, ok := d.members[id]
		if !ok {
			return ErrMemberNotFound
		}
		fn(&row.Member)
		d.members[id] = row
		return nil
	})
}

func (r *memoryMemberRepository) AddXP(ctx context.Context, id uuid.UUID, xp int) error {
	return r.update(ctx, id, func(m *models.Member) {
		m.XPEarned += xp
	})
}

func (r *memoryMemberRepository) MarkEliminated(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, func(m *models.Member) {
		if m.EliminatedAt == nil {
			eliminatedAt := at
			m.EliminatedAt = &eliminatedAt
		}
	})
}

func (r *memoryMemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.access.write(ctx, func(d *memoryData) error {
		if _, ok := d.members[id]; !ok {
			return ErrMemberNotFound
		}
		for _, m := range d.matches {
			if m.HasParticipant(id) || (m.WinnerID != nil && *m.WinnerID == id) {
				return ErrMemberInUse
			}
		}
		delete(d.members, id)
		return nil
	})
}

// --- matches ---

type memoryMatchRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	return r.access.write(ctx, func(d *memoryData) error {
		type position struct {
			tournamentID uuid.UUID
			round, order int
		}
		taken := make(map[position]bool)
		for _, m := range d.matches {
			taken[position{m.TournamentID, m.RoundNumber, m.MatchOrder}] = true
		}
		pending := make(map[uuid.UUID]bool, len(matches))

		for _, m := range matches {
			if m.ID == uuid.Nil {
				m.ID = uuid.New()
			}
			if m.Version == 0 {
				m.Version = 1
			}
			if _, ok := d.tournaments[m.TournamentID]; !ok {
				return ErrMatchTournamentInvalid
			}
			pos := position{m.TournamentID, m.RoundNumber, m.MatchOrder}
			if taken[pos] {
				return ErrMatchPositionConflict
			}
			taken[pos] = true
			if m.NextMatchID != nil {
				if _, ok := d.matches[*m.NextMatchID]; !ok && !pending[*m.NextMatchID] {
					return ErrMatchNextInvalid
				}
			}
			for _, ref := range []*uuid.UUID{m.ParticipantAID, m.ParticipantBID, m.WinnerID} {
				if ref == nil {
					continue
				}
				if _, ok := d.members[*ref]; !ok {
					return ErrMatchParticipantInvalid
				}
			}
			pending[m.ID] = true
		}

		for _, m := range matches {
			d.matches[m.ID] = *m
		}
		return nil
	})
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var out *models.Match
	err := r.access.read(ctx, func(d *memoryData) error {
		m, ok := d.matches[id]
		if !ok {
			return ErrMatchNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *memoryMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	out := make([]models.Match, 0)
	err := r.access.read(ctx, func(d *memoryData) error {
		for _, m := range d.matches {
			if m.TournamentID == tournamentID {
				out = append(out, m)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].RoundNumber != out[j].RoundNumber {
				return out[i].RoundNumber < out[j].RoundNumber
			}
			return out[i].MatchOrder < out[j].MatchOrder
		})
		return nil
	})
	return out, err
}

func (r *memoryMatchRepository) UpdateAdvancement(ctx context.Context, m *models.Match, expectedVersion int64) error {
	return r.access.write(ctx, func(d *memoryData) error {
		stored, ok := d.matches[m.ID]
		if !ok {
			return ErrMatchNotFound
		}
		if stored.Version != expectedVersion {
			return ErrMatchVersionConflict
		}
		stored.ParticipantAID = m.ParticipantAID
		stored.ParticipantBID = m.ParticipantBID
		stored.WinnerID = m.WinnerID
		stored.Version = expectedVersion + 1
		d.matches[m.ID] = stored
		m.Version = stored.Version
		return nil
	})
}

// --- audit logs ---

type memoryAuditLogRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryAuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.access.write(ctx, func(d *memoryData) error {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CreatedAt = r.now()
		d.auditLogs = append(d.auditLogs, *entry)
		return nil
	})
}

func (r *memoryAuditLogRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	out := make([]models.AuditLog, 0)
	err := r.access.read(ctx, func(d *memoryData) error {
		for _, l := range d.auditLogs {
			if l.EntityType == entityType && l.EntityID == entityID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

// --- users ---

type memoryUserRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.access.write(ctx, func(d *memoryData) error {
		user.Email = strings.ToLower(strings.TrimSpace(user.Email))
		for _, existing := range d.users {
			if existing.Email == user.Email {
				return ErrUserEmailConflict
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		now := r.now()
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.ID] = *user
		return nil
	})
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.access.read(ctx, func(d *memoryData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *models.User
	err := r.access.read(ctx, func(d *memoryData) error {
		for _, u := range d.users {
			if u.Email == email {
				found := u
				out = &found
				return nil
			}
		}
		return ErrUserNotFound
	})
	return out, err
}
