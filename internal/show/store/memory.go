package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"artshow/internal/scan"
	"artshow/internal/show/models"
	"artshow/pkg/platform/sentinel"
)

// Memory is the in-memory show store. It backs unit tests and the
// single-process dev mode; the postgres store is its production twin.
// All entities are stored by value so callers only ever see snapshots.
type Memory struct {
	mu              sync.RWMutex
	pieces          map[models.PieceKey]models.Piece
	persons         map[int]models.Person
	bidders         map[uuid.UUID]models.Bidder
	biddersByPerson map[int]uuid.UUID
	bidderIDs       map[string]models.BidderID
	bids            []models.Bid
}

// NewMemory constructs an empty in-memory show store.
func NewMemory() *Memory {
	return &Memory{
		pieces:          make(map[models.PieceKey]models.Piece),
		persons:         make(map[int]models.Person),
		bidders:         make(map[uuid.UUID]models.Bidder),
		biddersByPerson: make(map[int]uuid.UUID),
		bidderIDs:       make(map[string]models.BidderID),
	}
}

func (s *Memory) GetPiece(_ context.Context, artist, pieceID int) (*models.Piece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	piece, ok := s.pieces[models.PieceKey{Artist: artist, PieceID: pieceID}]
	if !ok {
		return nil, fmt.Errorf("piece A%dP%d: %w", artist, pieceID, sentinel.ErrNotFound)
	}
	return &piece, nil
}

func (s *Memory) SavePiece(_ context.Context, piece *models.Piece) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pieces[piece.Key()] = *piece
	return nil
}

func (s *Memory) GetBidderID(_ context.Context, code string) (*models.BidderID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bidderID, ok := s.bidderIDs[code]
	if !ok {
		return nil, fmt.Errorf("bidder id %s: %w", code, sentinel.ErrNotFound)
	}
	return &bidderID, nil
}

func (s *Memory) CreateBidderID(_ context.Context, bidderID *models.BidderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bidderIDs[bidderID.Code]; ok {
		return fmt.Errorf("bidder id %s: %w", bidderID.Code, sentinel.ErrConflict)
	}
	s.bidderIDs[bidderID.Code] = *bidderID
	return nil
}

func (s *Memory) GetPerson(_ context.Context, id int) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, ok := s.persons[id]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", id, sentinel.ErrNotFound)
	}
	return &person, nil
}

func (s *Memory) GetOrCreateBidder(_ context.Context, person *models.Person) (*models.Bidder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.biddersByPerson[person.ID]; ok {
		bidder := s.bidders[id]
		return &bidder, nil
	}
	bidder := models.Bidder{ID: uuid.New(), PersonID: person.ID, Name: person.Name}
	s.bidders[bidder.ID] = bidder
	s.biddersByPerson[person.ID] = bidder.ID
	return &bidder, nil
}

func (s *Memory) CountBids(_ context.Context, artist, pieceID int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, b := range s.bids {
		if b.Artist == artist && b.PieceID == pieceID {
			count++
		}
	}
	return count, nil
}

func (s *Memory) ValidateBid(_ context.Context, bid *models.Bid) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	piece, ok := s.pieces[models.PieceKey{Artist: bid.Artist, PieceID: bid.PieceID}]
	if !ok {
		return fmt.Errorf("piece A%dP%d: %w", bid.Artist, bid.PieceID, sentinel.ErrNotFound)
	}
	var existing []*models.Bid
	for i := range s.bids {
		if s.bids[i].Artist == bid.Artist && s.bids[i].PieceID == bid.PieceID {
			existing = append(existing, &s.bids[i])
		}
	}
	return models.CheckBid(&piece, existing, bid)
}

func (s *Memory) CreateBid(_ context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids = append(s.bids, *bid)
	return nil
}

// Seed helpers for tests and dev fixtures.

func (s *Memory) AddPiece(piece models.Piece) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pieces[piece.Key()] = piece
}

func (s *Memory) AddPerson(person models.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[person.ID] = person
}

func (s *Memory) AddBidder(bidder models.Bidder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidders[bidder.ID] = bidder
	s.biddersByPerson[bidder.PersonID] = bidder.ID
}

func (s *Memory) AddBidderID(bidderID models.BidderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidderIDs[bidderID.Code] = bidderID
}

func (s *Memory) AddBid(bid models.Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids = append(s.bids, bid)
}

// clone deep-copies the store contents into a fresh instance.
func (s *Memory) clone() *Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := NewMemory()
	for k, v := range s.pieces {
		out.pieces[k] = v
	}
	for k, v := range s.persons {
		out.persons[k] = v
	}
	for k, v := range s.bidders {
		out.bidders[k] = v
	}
	for k, v := range s.biddersByPerson {
		out.biddersByPerson[k] = v
	}
	for k, v := range s.bidderIDs {
		out.bidderIDs[k] = v
	}
	out.bids = append(out.bids, s.bids...)
	return out
}

// adopt replaces the store contents with those of other.
func (s *Memory) adopt(other *Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pieces = other.pieces
	s.persons = other.persons
	s.bidders = other.bidders
	s.biddersByPerson = other.biddersByPerson
	s.bidderIDs = other.bidderIDs
	s.bids = other.bids
}

// MemoryTx provides the unit-of-work contract over a Memory store: the scan
// machine runs against a deep copy which is adopted only when the run
// succeeds. Runs are serialized by the adopt/clone locking.
type MemoryTx struct {
	store *Memory
	mu    sync.Mutex
}

// NewMemoryTx wraps store with copy-on-run transaction semantics.
func NewMemoryTx(store *Memory) *MemoryTx {
	return &MemoryTx{store: store}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(store scan.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	work := t.store.clone()
	if err := fn(work); err != nil {
		return err
	}
	t.store.adopt(work)
	return nil
}
