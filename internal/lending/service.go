// Package lending implements the circulation workflow: borrowing and
// returning books, overdue fines, and the FIFO reservation queue.
//
// Every mutating operation runs inside a single database transaction; on
// any error all of its writes are rolled back. Rule violations surface as
// the package's sentinel errors, anything else is an infrastructure
// failure wrapped with operation context.
package lending

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/circulation/internal/database"
	"github.com/openshelf/circulation/internal/database/books"
	"github.com/openshelf/circulation/internal/database/loans"
	"github.com/openshelf/circulation/internal/database/reservations"
	"github.com/openshelf/circulation/internal/database/users"
	"github.com/openshelf/circulation/internal/entities"
	"github.com/openshelf/circulation/internal/policy"
)

const (
	// FinePerDayCents is charged for every whole day a return is overdue.
	FinePerDayCents = 200

	// ReservationWindowDays is how long a reservation stays ACTIVE before
	// it expires.
	ReservationWindowDays = 7
)

// Service is the lending workflow engine.
type Service struct {
	db  *database.Database
	now func() time.Time
}

// NewService creates a lending service using the wall clock.
func NewService(db *database.Database) *Service {
	return NewServiceWithClock(db, time.Now)
}

// NewServiceWithClock creates a lending service with an injected time
// source. Tests use this to simulate the passage of days.
func NewServiceWithClock(db *database.Database, now func() time.Time) *Service {
	return &Service{db: db, now: now}
}

// today returns the current date at midnight UTC. Loan and reservation
// arithmetic works in whole days.
func (s *Service) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// gateway groups the collection repositories bound to one database handle,
// so a transaction's writes all go through the same handle.
type gateway struct {
	users        *users.Repository
	books        *books.Repository
	loans        *loans.Repository
	reservations *reservations.Repository
}

func bindGateway(tx *gorm.DB) *gateway {
	return &gateway{
		users:        users.NewRepository(tx),
		books:        books.NewRepository(tx),
		loans:        loans.NewRepository(tx),
		reservations: reservations.NewRepository(tx),
	}
}

// ReserveOutcome is the result of Reserve. Exactly one field is set:
// Loan when the book was free and borrowed on the spot, Reservation when
// the user was queued.
type ReserveOutcome struct {
	Loan        *entities.Loan        `json:"loan,omitempty"`
	Reservation *entities.Reservation `json:"reservation,omitempty"`
}

// Borrowed reports whether the reserve turned into an immediate loan.
func (o *ReserveOutcome) Borrowed() bool {
	return o.Loan != nil
}

// Borrow lends a book to a user and returns the new open loan.
func (s *Service) Borrow(userID, bookID uint) (*entities.Loan, error) {
	var loan *entities.Loan
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		gw := bindGateway(tx)
		if _, err := gw.reservations.ExpireOlderThan(s.today()); err != nil {
			return fmt.Errorf("expire reservations: %w", err)
		}
		var err error
		loan, err = s.borrow(gw, userID, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// borrow runs the borrow checks and writes on an already-open transaction.
// The caller has run the reservation expiry sweep. All guards fire before
// the first write, so a rejected attempt leaves nothing behind.
func (s *Service) borrow(gw *gateway, userID, bookID uint) (*entities.Loan, error) {
	user, err := gw.users.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}

	book, err := gw.books.FindByID(bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find book %d: %w", bookID, err)
	}

	if !book.Available {
		return nil, ErrBookUnavailable
	}
	// The availability flag is a cache; check the loans table as well in
	// case the two have drifted apart.
	onLoan, err := gw.loans.HasOpenForBook(bookID)
	if err != nil {
		return nil, fmt.Errorf("check open loan for book %d: %w", bookID, err)
	}
	if onLoan {
		return nil, ErrBookUnavailable
	}

	head, err := gw.reservations.FindOldestActiveForBook(bookID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find reservation queue head for book %d: %w", bookID, err)
	}
	if err != nil {
		head = nil
	}
	if head != nil && head.UserID != userID {
		return nil, ErrReservationNotAllowed
	}

	rules := policy.ForRole(user.Role)
	openCount, err := gw.loans.CountOpenByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("count open loans for user %d: %w", userID, err)
	}
	if openCount >= int64(rules.BorrowLimit) {
		return nil, ErrBorrowLimitExceeded
	}

	today := s.today()
	if err := gw.books.SetAvailability(bookID, false); err != nil {
		return nil, fmt.Errorf("mark book %d unavailable: %w", bookID, err)
	}
	loan, err := gw.loans.Create(userID, bookID, today, today.AddDate(0, 0, rules.LoanPeriodDays))
	if err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	// head can only be this user's own reservation at this point.
	if head != nil {
		if err := gw.reservations.Fulfil(head.ID, loan.ID); err != nil {
			return nil, fmt.Errorf("fulfil reservation %d: %w", head.ID, err)
		}
	}
	return loan, nil
}

// Return closes the open loan for a book, charging a fine for overdue days,
// and hands the copy straight to the next reserver when they can take it.
// It returns the closed loan with the fine filled in.
func (s *Service) Return(bookID uint) (*entities.Loan, error) {
	var closed *entities.Loan
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		gw := bindGateway(tx)
		today := s.today()

		if _, err := gw.reservations.ExpireOlderThan(today); err != nil {
			return fmt.Errorf("expire reservations: %w", err)
		}

		if _, err := gw.books.FindByID(bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("find book %d: %w", bookID, err)
		}

		loan, err := gw.loans.FindOpenForBook(bookID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLoanNotFound
		}
		if err != nil {
			return fmt.Errorf("find open loan for book %d: %w", bookID, err)
		}

		fine := loan.OverdueDays(today) * FinePerDayCents
		if err := gw.loans.Close(loan.ID, today, fine); err != nil {
			return fmt.Errorf("close loan %d: %w", loan.ID, err)
		}
		if err := gw.books.SetAvailability(bookID, true); err != nil {
			return fmt.Errorf("mark book %d available: %w", bookID, err)
		}

		if err := s.relendToQueueHead(gw, bookID); err != nil {
			return err
		}

		returned := *loan
		returned.ReturnedAt = &today
		returned.FineAmount = fine
		closed = &returned
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// relendToQueueHead re-lends a just-returned book to the earliest reserver,
// provided they are under their borrow limit. A reserver at their limit
// keeps their place in the queue and the book stays available.
func (s *Service) relendToQueueHead(gw *gateway, bookID uint) error {
	head, err := gw.reservations.FindOldestActiveForBook(bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find reservation queue head for book %d: %w", bookID, err)
	}

	next, err := gw.users.FindByID(head.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user %d: %w", head.UserID, err)
	}

	rules := policy.ForRole(next.Role)
	openCount, err := gw.loans.CountOpenByUser(next.ID)
	if err != nil {
		return fmt.Errorf("count open loans for user %d: %w", next.ID, err)
	}
	if openCount >= int64(rules.BorrowLimit) {
		return nil
	}

	today := s.today()
	if err := gw.books.SetAvailability(bookID, false); err != nil {
		return fmt.Errorf("mark book %d unavailable: %w", bookID, err)
	}
	loan, err := gw.loans.Create(next.ID, bookID, today, today.AddDate(0, 0, rules.LoanPeriodDays))
	if err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	if err := gw.reservations.Fulfil(head.ID, loan.ID); err != nil {
		return fmt.Errorf("fulfil reservation %d: %w", head.ID, err)
	}
	return nil
}

// Reserve queues a user for a book. When the book is free and the user may
// take it, it is borrowed on the spot instead and the outcome carries the
// new loan.
func (s *Service) Reserve(userID, bookID uint) (*ReserveOutcome, error) {
	var outcome *ReserveOutcome
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		gw := bindGateway(tx)
		today := s.today()

		if _, err := gw.reservations.ExpireOlderThan(today); err != nil {
			return fmt.Errorf("expire reservations: %w", err)
		}

		if _, err := gw.users.FindByID(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("find user %d: %w", userID, err)
		}
		book, err := gw.books.FindByID(bookID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		if err != nil {
			return fmt.Errorf("find book %d: %w", bookID, err)
		}

		exists, err := gw.reservations.HasActive(userID, bookID)
		if err != nil {
			return fmt.Errorf("check active reservation: %w", err)
		}
		if exists {
			return ErrReservationExists
		}

		onLoan, err := gw.loans.HasOpenForBook(bookID)
		if err != nil {
			return fmt.Errorf("check open loan for book %d: %w", bookID, err)
		}

		if book.Available && !onLoan {
			loan, err := s.borrow(gw, userID, bookID)
			if err == nil {
				outcome = &ReserveOutcome{Loan: loan}
				return nil
			}
			// A failed attempt turns into a queued reservation, but only
			// for these three rule rejections; everything else propagates.
			// The attempt wrote nothing, its guards fire before any write.
			if !errors.Is(err, ErrBorrowLimitExceeded) &&
				!errors.Is(err, ErrReservationNotAllowed) &&
				!errors.Is(err, ErrBookUnavailable) {
				return err
			}
		}

		reservation, err := gw.reservations.Create(userID, bookID, today.AddDate(0, 0, ReservationWindowDays))
		if err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		outcome = &ReserveOutcome{Reservation: reservation}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// CancelReservation withdraws a user's own ACTIVE reservation.
func (s *Service) CancelReservation(reservationID, userID uint) error {
	return s.db.DB.Transaction(func(tx *gorm.DB) error {
		gw := bindGateway(tx)

		if _, err := gw.reservations.ExpireOlderThan(s.today()); err != nil {
			return fmt.Errorf("expire reservations: %w", err)
		}

		reservation, err := gw.reservations.FindByID(reservationID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("find reservation %d: %w", reservationID, err)
		}
		// Other users' reservations are not disclosed.
		if reservation.UserID != userID {
			return ErrReservationNotFound
		}
		if !reservation.IsActive() {
			return ErrReservationNotActive
		}

		if err := gw.reservations.Cancel(reservationID); err != nil {
			return fmt.Errorf("cancel reservation %d: %w", reservationID, err)
		}
		return nil
	})
}

// ExpireReservations runs the reservation expiry sweep on its own and
// returns how many reservations expired. The scheduler calls this
// periodically; every workflow operation also runs it first.
func (s *Service) ExpireReservations() (int64, error) {
	count, err := reservations.NewRepository(s.db.DB).ExpireOlderThan(s.today())
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	return count, nil
}

// RegisterUser creates a user. Unknown roles fall back to MEMBER.
func (s *Service) RegisterUser(name string, role entities.Role) (*entities.User, error) {
	user, err := users.NewRepository(s.db.DB).Create(name, role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// RenameUser updates a user's display name.
func (s *Service) RenameUser(id uint, name string) error {
	repo := users.NewRepository(s.db.DB)
	if _, err := repo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user %d: %w", id, err)
	}
	if err := repo.Rename(id, name); err != nil {
		return fmt.Errorf("rename user %d: %w", id, err)
	}
	return nil
}

// AddBook adds a book to the catalogue.
func (s *Service) AddBook(title, author string) (*entities.Book, error) {
	book, err := books.NewRepository(s.db.DB).Create(title, author)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// GetBook retrieves a single book.
func (s *Service) GetBook(id uint) (*entities.Book, error) {
	book, err := books.NewRepository(s.db.DB).FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	return book, nil
}

// GetUser retrieves a single user.
func (s *Service) GetUser(id uint) (*entities.User, error) {
	user, err := users.NewRepository(s.db.DB).FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return user, nil
}

// ListUsers lists all users ordered by id.
func (s *Service) ListUsers() ([]entities.User, error) {
	list, err := users.NewRepository(s.db.DB).ListAll()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return list, nil
}

// ListBooks lists the catalogue ordered by id.
func (s *Service) ListBooks() ([]entities.Book, error) {
	list, err := books.NewRepository(s.db.DB).ListAll()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return list, nil
}

// SearchBooks finds catalogue entries matching the query by title or author.
func (s *Service) SearchBooks(query string) ([]entities.Book, error) {
	list, err := books.NewRepository(s.db.DB).Search(query)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return list, nil
}

// ListLoans lists all loans, newest first.
func (s *Service) ListLoans() ([]entities.Loan, error) {
	list, err := loans.NewRepository(s.db.DB).ListAll()
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return list, nil
}

// ListReservations lists all reservations, newest first. The expiry sweep
// runs first so the listing never shows a stale ACTIVE entry.
func (s *Service) ListReservations() ([]entities.Reservation, error) {
	if _, err := s.ExpireReservations(); err != nil {
		return nil, err
	}
	list, err := reservations.NewRepository(s.db.DB).ListAll()
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}
