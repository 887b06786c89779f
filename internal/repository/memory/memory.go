// Package memory is a mutex-guarded repository.Store used for local runs
// (database driver "memory") and by service tests. A unit of work holds the
// store lock for its whole duration and is rolled back by restoring a
// snapshot taken at its start.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/repository"
)

type data struct {
	books        map[int32]domain.Book
	copies       map[int32]domain.BookCopy
	members      map[int32]domain.Member
	staff        map[int32]domain.Staff
	transactions map[int32]domain.Transaction
	nextID       map[string]int32
}

func newData() *data {
	return &data{
		books:        make(map[int32]domain.Book),
		copies:       make(map[int32]domain.BookCopy),
		members:      make(map[int32]domain.Member),
		staff:        make(map[int32]domain.Staff),
		transactions: make(map[int32]domain.Transaction),
		nextID:       make(map[string]int32),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.books {
		c.books[k] = v
	}
	for k, v := range d.copies {
		c.copies[k] = v
	}
	for k, v := range d.members {
		c.members[k] = v
	}
	for k, v := range d.staff {
		c.staff[k] = v
	}
	for k, v := range d.transactions {
		c.transactions[k] = cloneTransaction(v)
	}
	for k, v := range d.nextID {
		c.nextID[k] = v
	}
	return c
}

// assignID returns id if set, otherwise the next free id for table.
func (d *data) assignID(table string, id int32) int32 {
	if id == 0 {
		id = d.nextID[table] + 1
	}
	if id > d.nextID[table] {
		d.nextID[table] = id
	}
	return id
}

func cloneTransaction(t domain.Transaction) domain.Transaction {
	if t.Loan != nil {
		loan := *t.Loan
		t.Loan = &loan
	}
	if t.Return != nil {
		ret := *t.Return
		t.Return = &ret
	}
	if t.CancelledAt != nil {
		at := *t.CancelledAt
		t.CancelledAt = &at
	}
	return t
}

type Store struct {
	mu   sync.Mutex
	data *data
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: newData()}
}

func (s *Store) Repos() repository.Repositories {
	return s.repositories(false)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(ctx, s.repositories(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	b := base{store: s, inTx: inTx}
	return repository.Repositories{
		Books:        bookRepository{b},
		Copies:       copyRepository{b},
		Members:      memberRepository{b},
		Staff:        staffRepository{b},
		Transactions: transactionRepository{b},
	}
}

// base gives every repository access to the store. Outside a unit of work
// each call takes the lock itself.
type base struct {
	store *Store
	inTx  bool
}

func (b base) enter() (*data, func()) {
	if b.inTx {
		return b.store.data, func() {}
	}
	b.store.mu.Lock()
	return b.store.data, b.store.mu.Unlock
}

// Seeding and inspection helpers. They are not part of repository.Store.

func (s *Store) AddBook(b domain.Book) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.data.assignID("books", b.ID)
	if b.Status == "" {
		b.Status = domain.BookStatusActive
	}
	if b.BookLimit == 0 {
		b.BookLimit = 1
	}
	s.data.books[b.ID] = b
	return b.ID
}

func (s *Store) AddCopy(c domain.BookCopy) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.data.assignID("copies", c.ID)
	if c.Status == "" {
		c.Status = domain.CopyStatusAvailable
	}
	s.data.copies[c.ID] = c
	return c.ID
}

func (s *Store) AddMember(m domain.Member) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.data.assignID("members", m.ID)
	if m.Status == "" {
		m.Status = domain.MemberStatusActive
	}
	s.data.members[m.ID] = m
	return m.ID
}

func (s *Store) AddStaff(st domain.Staff) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.data.assignID("staff", st.ID)
	s.data.staff[st.ID] = st
	return st.ID
}

func (s *Store) Copy(id int32) (domain.BookCopy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.copies[id]
	return c, ok
}

func (s *Store) Transaction(id int32) (domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.transactions[id]
	return cloneTransaction(t), ok
}

// Transactions returns every stored record ordered by id.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, 0, len(s.data.transactions))
	for _, t := range s.data.transactions {
		out = append(out, cloneTransaction(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func paginate(txs []domain.Transaction, page, limit int32) []domain.Transaction {
	if limit <= 0 {
		return txs
	}
	if page < 1 {
		page = 1
	}
	start := int((page - 1) * limit)
	if start >= len(txs) {
		return []domain.Transaction{}
	}
	end := start + int(limit)
	if end > len(txs) {
		end = len(txs)
	}
	return txs[start:end]
}

func timeOrID(a, b time.Time, idA, idB int32) bool {
	if a.Equal(b) {
		return idA < idB
	}
	return a.Before(b)
}
