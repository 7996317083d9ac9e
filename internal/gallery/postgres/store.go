package postgres

// Store bundles the user, attendance and event repositories behind a
// single gallery.Store implementation.
type Store struct {
	*UserRepository
	*AttendanceRepository
	*EventRepository
}

// NewStore creates a combined store over one connection pool.
func NewStore(pool *Pool) *Store {
	return &Store{
		UserRepository:       NewUserRepository(pool),
		AttendanceRepository: NewAttendanceRepository(pool),
		EventRepository:      NewEventRepository(pool),
	}
}
