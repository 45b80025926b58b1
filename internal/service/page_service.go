package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/selection"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// PageKind names a console page backed by a selection chain.
type PageKind string

const (
	// PageSubscriptions subscribes students to study classes.
	PageSubscriptions PageKind = "subscriptions"
	// PageEnrollment assigns professors to study classes.
	PageEnrollment PageKind = "enrollment"
)

// DefaultRosterPageSize is used when a view does not ask for a page size.
const DefaultRosterPageSize = 10

var (
	errPageNotFound = appErrors.Clone(appErrors.ErrNotFound, "page not found")
	errUnknownPage  = appErrors.Clone(appErrors.ErrValidation, "unknown page kind")
)

// PageSnapshot is a mounted page's selection state.
type PageSnapshot struct {
	ID        string             `json:"id"`
	Kind      PageKind           `json:"kind"`
	Selection selection.Snapshot `json:"selection"`
}

// PageView is the selection plus the data each enabled picker shows.
type PageView struct {
	PageSnapshot
	Courses          []models.Course            `json:"courses"`
	StudyClasses     []models.StudyClass        `json:"studyClasses,omitempty"`
	StudyClass       *models.StudyClass         `json:"studyClass,omitempty"`
	Students         []models.Student           `json:"students,omitempty"`
	Professors       []models.Professor         `json:"professors,omitempty"`
	Roster           []models.SubscribedStudent `json:"roster,omitempty"`
	RosterPagination *models.Pagination         `json:"rosterPagination,omitempty"`
	CacheHit         bool                       `json:"-"`
}

type page struct {
	kind     PageKind
	state    selection.State
	lastSeen time.Time
}

// directory is the read surface a page view derives its data from.
type directory interface {
	Courses(ctx context.Context) ([]models.Course, bool, error)
	StudyClasses(ctx context.Context, courseID int64) ([]models.StudyClass, bool, error)
	StudyClass(ctx context.Context, id int64) (models.StudyClass, bool, error)
	Students(ctx context.Context) ([]models.Student, bool, error)
	Professors(ctx context.Context) ([]models.Professor, bool, error)
	Roster(ctx context.Context, studyClassID int64) ([]models.SubscribedStudent, bool, error)
}

// PageService keeps one selection state per mounted page.
type PageService struct {
	mu     sync.Mutex
	pages  map[string]*page
	dir    directory
	logger *zap.Logger
	now    func() time.Time
}

// NewPageService constructs a PageService.
func NewPageService(dir directory, logger *zap.Logger) *PageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageService{pages: make(map[string]*page), dir: dir, logger: logger, now: time.Now}
}

// Mount creates a page session with the initial state of kind's chain.
func (s *PageService) Mount(kind PageKind) (PageSnapshot, error) {
	var state selection.State
	switch kind {
	case PageSubscriptions:
		state = selection.New(selection.SubscriptionChain, true)
	case PageEnrollment:
		state = selection.New(selection.EnrollmentChain, false)
	default:
		return PageSnapshot{}, appErrors.Clone(errUnknownPage, fmt.Sprintf("unknown page kind %q", kind))
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.pages[id] = &page{kind: kind, state: state, lastSeen: s.now()}
	s.mu.Unlock()
	s.logger.Debug("page mounted", zap.String("page_id", id), zap.String("kind", string(kind)))
	return PageSnapshot{ID: id, Kind: kind, Selection: state.Snapshot()}, nil
}

// Get returns the current state of a page.
func (s *PageService) Get(id string) (PageSnapshot, error) {
	kind, state, err := s.touch(id)
	if err != nil {
		return PageSnapshot{}, err
	}
	return PageSnapshot{ID: id, Kind: kind, Selection: state.Snapshot()}, nil
}

func (s *PageService) touch(id string) (PageKind, selection.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return "", selection.State{}, errPageNotFound
	}
	p.lastSeen = s.now()
	return p.kind, p.state, nil
}

// Apply runs events against a page in order and returns the resulting state.
func (s *PageService) Apply(id string, events ...selection.Event) (PageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return PageSnapshot{}, errPageNotFound
	}
	for _, ev := range events {
		p.state = p.state.Apply(ev)
	}
	p.lastSeen = s.now()
	return PageSnapshot{ID: id, Kind: p.kind, Selection: p.state.Snapshot()}, nil
}

// Unmount discards a page session. Unknown ids are ignored.
func (s *PageService) Unmount(id string) {
	s.mu.Lock()
	delete(s.pages, id)
	s.mu.Unlock()
}

// Prune unmounts pages idle for longer than idle and returns how many.
func (s *PageService) Prune(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, p := range s.pages {
		if p.lastSeen.Before(cutoff) {
			delete(s.pages, id)
			removed++
		}
	}
	return removed
}

// View derives the data every enabled picker of a page needs. A picker whose
// ancestors are unselected loads nothing.
func (s *PageService) View(ctx context.Context, id string, pageSize int) (PageView, error) {
	kind, state, err := s.touch(id)
	if err != nil {
		return PageView{}, err
	}
	if pageSize <= 0 {
		pageSize = DefaultRosterPageSize
	}

	view := PageView{PageSnapshot: PageSnapshot{ID: id, Kind: kind, Selection: state.Snapshot()}}
	var (
		mu   sync.Mutex
		hits = true
	)
	track := func(hit bool) {
		mu.Lock()
		hits = hits && hit
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		courses, hit, err := s.dir.Courses(gctx)
		track(hit)
		view.Courses = courses
		return err
	})
	if courseID, ok := state.Selected(selection.SlotCourse); ok {
		g.Go(func() error {
			classes, hit, err := s.dir.StudyClasses(gctx, courseID)
			track(hit)
			view.StudyClasses = classes
			return err
		})
	}
	if classID, ok := state.Selected(selection.SlotStudyClass); ok {
		g.Go(func() error {
			class, hit, err := s.dir.StudyClass(gctx, classID)
			track(hit)
			if err == nil {
				view.StudyClass = &class
			}
			return err
		})
		switch kind {
		case PageSubscriptions:
			g.Go(func() error {
				students, hit, err := s.dir.Students(gctx)
				track(hit)
				view.Students = students
				return err
			})
			g.Go(func() error {
				roster, hit, err := s.dir.Roster(gctx, classID)
				track(hit)
				if err == nil {
					view.Roster, view.RosterPagination = models.Paginate(roster, state.Page(), pageSize)
				}
				return err
			})
		case PageEnrollment:
			g.Go(func() error {
				professors, hit, err := s.dir.Professors(gctx)
				track(hit)
				view.Professors = professors
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return PageView{}, err
	}
	view.CacheHit = hits
	return view, nil
}
