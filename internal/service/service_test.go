package service

import (
	"context"
	"sort"
	"time"

	"afisha/internal/models"
	"afisha/internal/repository"
)

// In-memory fakes over a shared store. The request fake snapshots state
// before the transaction callback and restores it on error, mirroring the
// rollback of the real implementation.

type fakeStore struct {
	users      map[int64]models.User
	categories map[int64]models.Category
	events     map[int64]*models.Event
	requests   map[int64]*models.Request
	reactions  map[int64]*models.Reaction
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[int64]models.User),
		categories: make(map[int64]models.Category),
		events:     make(map[int64]*models.Event),
		requests:   make(map[int64]*models.Request),
		reactions:  make(map[int64]*models.Reaction),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(name string) int64 {
	id := s.id()
	s.users[id] = models.User{ID: id, Name: name}
	return id
}

func (s *fakeStore) addCategory(name string) int64 {
	id := s.id()
	s.categories[id] = models.Category{ID: id, Name: name}
	return id
}

func (s *fakeStore) addEvent(event models.Event) int64 {
	event.ID = s.id()
	if event.CreatedOn.IsZero() {
		event.CreatedOn = time.Now()
	}
	s.events[event.ID] = &event
	return event.ID
}

func (s *fakeStore) addRequest(eventID, requesterID int64, status models.RequestStatus) int64 {
	id := s.id()
	s.requests[id] = &models.Request{
		ID:          id,
		EventID:     eventID,
		RequesterID: requesterID,
		Status:      status,
		Created:     time.Now(),
	}
	return id
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if user, ok := r.store.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]models.User, error) {
	result := make(map[int64]models.User)
	for _, id := range ids {
		if user, ok := r.store.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

type fakeCategoryRepo struct{ store *fakeStore }

func (r *fakeCategoryRepo) GetByID(_ context.Context, id int64) (*models.Category, error) {
	if category, ok := r.store.categories[id]; ok {
		return &category, nil
	}
	return nil, nil
}

func (r *fakeCategoryRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]models.Category, error) {
	result := make(map[int64]models.Category)
	for _, id := range ids {
		if category, ok := r.store.categories[id]; ok {
			result[id] = category
		}
	}
	return result, nil
}

type fakeEventRepo struct{ store *fakeStore }

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	event.ID = r.store.id()
	event.CreatedOn = time.Now()
	clone := *event
	r.store.events[event.ID] = &clone
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	if event, ok := r.store.events[id]; ok {
		clone := *event
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeEventRepo) GetByIDs(_ context.Context, ids []int64) ([]models.Event, error) {
	var events []models.Event
	for _, id := range ids {
		if event, ok := r.store.events[id]; ok {
			events = append(events, *event)
		}
	}
	return events, nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	clone := *event
	r.store.events[event.ID] = &clone
	return nil
}

func (r *fakeEventRepo) ByInitiator(_ context.Context, initiatorID int64, from, size int) ([]models.Event, error) {
	var events []models.Event
	for _, event := range r.store.events {
		if event.InitiatorID == initiatorID {
			events = append(events, *event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return page(events, from, size), nil
}

func (r *fakeEventRepo) AdminSearch(_ context.Context, filter models.AdminEventFilter) ([]models.Event, error) {
	var events []models.Event
	for _, event := range r.store.events {
		if len(filter.Users) > 0 && !containsID(filter.Users, event.InitiatorID) {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, event.State) {
			continue
		}
		events = append(events, *event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return page(events, filter.From, filter.Size), nil
}

func (r *fakeEventRepo) PublicSearch(_ context.Context, filter models.PublicEventFilter) ([]models.Event, error) {
	var events []models.Event
	for _, event := range r.store.events {
		if event.State != models.EventPublished {
			continue
		}
		if filter.Paid != nil && event.Paid != *filter.Paid {
			continue
		}
		if filter.RangeStart != nil && event.EventDate.Before(*filter.RangeStart) {
			continue
		}
		events = append(events, *event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return page(events, filter.From, filter.Size), nil
}

type fakeRequestRepo struct{ store *fakeStore }

func (r *fakeRequestRepo) InEventTx(ctx context.Context, eventID int64, fn func(tx repository.EventTx) error) error {
	event, ok := r.store.events[eventID]
	if !ok {
		return repository.ErrEventNotFound
	}

	snapshot := make(map[int64]models.Request, len(r.store.requests))
	for id, req := range r.store.requests {
		snapshot[id] = *req
	}

	clone := *event
	if err := fn(&fakeEventTx{store: r.store, event: &clone}); err != nil {
		r.store.requests = make(map[int64]*models.Request, len(snapshot))
		for id, req := range snapshot {
			restored := req
			r.store.requests[id] = &restored
		}
		return err
	}

	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id int64) (*models.Request, error) {
	if req, ok := r.store.requests[id]; ok {
		clone := *req
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeRequestRepo) ByRequester(_ context.Context, requesterID int64) ([]models.Request, error) {
	var requests []models.Request
	for _, req := range r.store.requests {
		if req.RequesterID == requesterID {
			requests = append(requests, *req)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (r *fakeRequestRepo) ByEvent(_ context.Context, eventID int64) ([]models.Request, error) {
	var requests []models.Request
	for _, req := range r.store.requests {
		if req.EventID == eventID {
			requests = append(requests, *req)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (r *fakeRequestRepo) ByEventAndRequester(_ context.Context, eventID, requesterID int64) (*models.Request, error) {
	var latest *models.Request
	for _, req := range r.store.requests {
		if req.EventID == eventID && req.RequesterID == requesterID {
			if latest == nil || req.ID > latest.ID {
				latest = req
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeRequestRepo) UpdateStatus(_ context.Context, id int64, status models.RequestStatus) error {
	if req, ok := r.store.requests[id]; ok {
		req.Status = status
	}
	return nil
}

func (r *fakeRequestRepo) ConfirmedCounts(_ context.Context, eventIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int)
	for _, req := range r.store.requests {
		if req.Status == models.RequestConfirmed && containsID(eventIDs, req.EventID) {
			result[req.EventID]++
		}
	}
	return result, nil
}

type fakeEventTx struct {
	store *fakeStore
	event *models.Event
}

func (t *fakeEventTx) Event() *models.Event {
	return t.event
}

func (t *fakeEventTx) ConfirmedCount(_ context.Context) (int, error) {
	count := 0
	for _, req := range t.store.requests {
		if req.EventID == t.event.ID && req.Status == models.RequestConfirmed {
			count++
		}
	}
	return count, nil
}

func (t *fakeEventTx) PendingRequests(_ context.Context) ([]models.Request, error) {
	var requests []models.Request
	for _, req := range t.store.requests {
		if req.EventID == t.event.ID && req.Status == models.RequestPending {
			requests = append(requests, *req)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (t *fakeEventTx) RequestByRequester(_ context.Context, requesterID int64) (*models.Request, error) {
	var latest *models.Request
	for _, req := range t.store.requests {
		if req.EventID == t.event.ID && req.RequesterID == requesterID {
			if latest == nil || req.ID > latest.ID {
				latest = req
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (t *fakeEventTx) InsertRequest(_ context.Context, req *models.Request) error {
	req.ID = t.store.id()
	req.Created = time.Now()
	clone := *req
	t.store.requests[req.ID] = &clone
	return nil
}

func (t *fakeEventTx) UpdateRequestStatuses(_ context.Context, ids []int64, status models.RequestStatus) error {
	for _, id := range ids {
		if req, ok := t.store.requests[id]; ok {
			req.Status = status
		}
	}
	return nil
}

type fakeReactionRepo struct{ store *fakeStore }

func (r *fakeReactionRepo) GetByPair(_ context.Context, eventID, participantID int64) (*models.Reaction, error) {
	for _, reaction := range r.store.reactions {
		if reaction.EventID == eventID && reaction.ParticipantID == participantID {
			clone := *reaction
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeReactionRepo) Insert(_ context.Context, reaction *models.Reaction) error {
	reaction.ID = r.store.id()
	reaction.Created = time.Now()
	clone := *reaction
	r.store.reactions[reaction.ID] = &clone
	return nil
}

func (r *fakeReactionRepo) UpdateStatus(_ context.Context, id int64, status models.ReactionStatus) error {
	if reaction, ok := r.store.reactions[id]; ok {
		reaction.Status = status
	}
	return nil
}

func (r *fakeReactionRepo) Delete(_ context.Context, id int64) error {
	delete(r.store.reactions, id)
	return nil
}

func (r *fakeReactionRepo) ByEvent(_ context.Context, eventID int64, from, size int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	for _, reaction := range r.store.reactions {
		if reaction.EventID == eventID {
			reactions = append(reactions, *reaction)
		}
	}
	sort.Slice(reactions, func(i, j int) bool { return reactions[i].ID > reactions[j].ID })
	return pageReactions(reactions, from, size), nil
}

func (r *fakeReactionRepo) UserRatings(_ context.Context, userIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64)
	for _, reaction := range r.store.reactions {
		event, ok := r.store.events[reaction.EventID]
		if !ok || !containsID(userIDs, event.InitiatorID) {
			continue
		}
		if reaction.Status == models.ReactionLike {
			result[event.InitiatorID]++
		} else {
			result[event.InitiatorID]--
		}
	}
	return result, nil
}

type fakeNotifier struct {
	subjects []string
}

func (n *fakeNotifier) Publish(subject string, _ interface{}) error {
	n.subjects = append(n.subjects, subject)
	return nil
}

type fakeViews struct {
	views map[int64]int64
	hits  []string
}

func (v *fakeViews) RecordHit(_ context.Context, uri, _ string) {
	v.hits = append(v.hits, uri)
}

func (v *fakeViews) Views(_ context.Context, eventIDs []int64) map[int64]int64 {
	result := make(map[int64]int64, len(eventIDs))
	for _, id := range eventIDs {
		result[id] = v.views[id]
	}
	return result
}

func page(events []models.Event, from, size int) []models.Event {
	if from >= len(events) {
		return nil
	}
	end := from + size
	if size <= 0 || end > len(events) {
		end = len(events)
	}
	return events[from:end]
}

func pageReactions(reactions []models.Reaction, from, size int) []models.Reaction {
	if from >= len(reactions) {
		return nil
	}
	end := from + size
	if size <= 0 || end > len(reactions) {
		end = len(reactions)
	}
	return reactions[from:end]
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsState(states []models.EventState, state models.EventState) bool {
	for _, v := range states {
		if v == state {
			return true
		}
	}
	return false
}

// testEnv bundles the fakes and services for a test case.
type testEnv struct {
	store    *fakeStore
	notifier *fakeNotifier
	views    *fakeViews
	services *Services
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	views := &fakeViews{views: make(map[int64]int64)}

	repos := &repository.Repositories{
		Events:     &fakeEventRepo{store: store},
		Requests:   &fakeRequestRepo{store: store},
		Reactions:  &fakeReactionRepo{store: store},
		Users:      &fakeUserRepo{store: store},
		Categories: &fakeCategoryRepo{store: store},
	}

	return &testEnv{
		store:    store,
		notifier: notifier,
		views:    views,
		services: NewServices(repos, views, nil, notifier),
	}
}
