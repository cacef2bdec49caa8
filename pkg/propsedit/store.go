package propsedit

import (
	"sync"

	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/models"
)

// Store holds the working layout document of every open builder session, keyed by page
// id. Sessions do not lock against each other; the last save wins.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*models.LayoutDocument
}

func NewStore() *Store {
	return &Store{docs: make(map[string]*models.LayoutDocument)}
}

// Open starts (or restarts) a session for pageID with a copy of doc.
func (s *Store) Open(pageID string, doc *models.LayoutDocument) {
	if doc == nil {
		doc = &models.LayoutDocument{}
	}
	working := doc.Clone()
	if working.Instances == nil {
		working.Instances = map[string]models.WidgetInstance{}
	}
	s.mu.Lock()
	s.docs[pageID] = working
	s.mu.Unlock()
}

// Document returns a copy of the working document for pageID.
func (s *Store) Document(pageID string) (*models.LayoutDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[pageID]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// Instance returns one instance of the working document.
func (s *Store) Instance(pageID, cellID string) (models.WidgetInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[pageID]
	if !ok {
		return models.WidgetInstance{}, apperrors.NewNotFoundError("builder session", pageID)
	}
	inst, ok := doc.Instances[cellID]
	if !ok {
		return models.WidgetInstance{}, apperrors.NewNotFoundError("widget instance", cellID)
	}
	return inst, nil
}

// Dispatch replaces instance cellID of pageID's working document with the result of fn.
// fn runs under the store lock; returning an error leaves the document unchanged.
func (s *Store) Dispatch(pageID, cellID string, fn func(models.WidgetInstance) (models.WidgetInstance, error)) (models.WidgetInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[pageID]
	if !ok {
		return models.WidgetInstance{}, apperrors.NewNotFoundError("builder session", pageID)
	}
	inst, ok := doc.Instances[cellID]
	if !ok {
		return models.WidgetInstance{}, apperrors.NewNotFoundError("widget instance", cellID)
	}
	next, err := fn(inst)
	if err != nil {
		return inst, err
	}
	doc.Instances[cellID] = next
	return next, nil
}

// Close discards the session for pageID.
func (s *Store) Close(pageID string) {
	s.mu.Lock()
	delete(s.docs, pageID)
	s.mu.Unlock()
}
