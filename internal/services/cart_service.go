package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tokocart/internal/consolidation"
	"tokocart/internal/metrics"
	"tokocart/internal/models"
	"tokocart/internal/repositories"
	"tokocart/pkg/rabbitmq"

	"github.com/google/uuid"
)

// DefaultPersistTimeout bounds a single persistence call.
const DefaultPersistTimeout = 10 * time.Second

// ErrInvalidQuantity is returned when an item is added with quantity < 1.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// EventPublisher publishes domain events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// MergeTrigger names the user action that started a merge.
type MergeTrigger string

const (
	TriggerManual      MergeTrigger = "manual"
	TriggerDragDrop    MergeTrigger = "drag_drop"
	TriggerContextMenu MergeTrigger = "context_menu"
	TriggerRename      MergeTrigger = "rename"
	TriggerAutoMerge   MergeTrigger = "auto_merge"
)

// MergeRequest describes one user-initiated merge. Every UI trigger builds
// the same request.
type MergeRequest struct {
	OrderID  string
	SourceID string
	TargetID string
	Actor    string
	Trigger  MergeTrigger
}

// Result is the settled state of an order after a cart operation.
type Result struct {
	Order models.Order `json:"order"`
	// Cart is the cart the operation produced or landed in, if any.
	Cart *models.Cart `json:"cart,omitempty"`
}

// Suggestion is a scored merge candidate for display.
type Suggestion struct {
	SourceID   string  `json:"source_id"`
	SourceName string  `json:"source_name"`
	TargetID   string  `json:"target_id"`
	TargetName string  `json:"target_name"`
	Similarity float64 `json:"similarity"`
	Confidence int     `json:"confidence"`
	Reason     string  `json:"reason"`
	Benefit    string  `json:"benefit"`
	ItemCount  int     `json:"item_count"`
}

// AutoMergeSummary is the outcome of one auto-merge pass over an order.
type AutoMergeSummary struct {
	Order  models.Order `json:"order"`
	Merged []Suggestion `json:"merged"`
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

// CartService coordinates every cart mutation for an order: it reads the
// stored cart set, computes the new set on a copy and persists it as one
// replacement. The stored set is the only visible state, so a failed save
// leaves what every reader sees untouched.
type CartService struct {
	carts          repositories.CartRepository
	orders         repositories.OrderRepository
	products       repositories.ProductRepository
	publisher      EventPublisher
	autoMerge      consolidation.Config
	persistTimeout time.Duration
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*orderLock
}

// CartServiceOption customizes a CartService.
type CartServiceOption func(*CartService)

// WithAutoMergeConfig sets the auto-merge policy.
func WithAutoMergeConfig(cfg consolidation.Config) CartServiceOption {
	return func(s *CartService) { s.autoMerge = cfg }
}

// WithPersistTimeout bounds each persistence call.
func WithPersistTimeout(d time.Duration) CartServiceOption {
	return func(s *CartService) { s.persistTimeout = d }
}

// WithClock replaces time.Now for audit stamps.
func WithClock(now func() time.Time) CartServiceOption {
	return func(s *CartService) { s.now = now }
}

// NewCartService creates a new CartService. publisher may be nil.
func NewCartService(carts repositories.CartRepository, orders repositories.OrderRepository, products repositories.ProductRepository, publisher EventPublisher, opts ...CartServiceOption) *CartService {
	s := &CartService{
		carts:          carts,
		orders:         orders,
		products:       products,
		publisher:      publisher,
		autoMerge:      consolidation.DefaultConfig(),
		persistTimeout: DefaultPersistTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		locks:          make(map[string]*orderLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCarts returns the stored cart set for an order.
func (s *CartService) ListCarts(ctx context.Context, orderID string) ([]models.Cart, error) {
	if _, err := s.orders.GetByID(orderID); err != nil {
		return nil, err
	}
	return s.snapshot(ctx, orderID)
}

// CreateCart creates an empty cart. When the name collides and confirm
// chooses to merge, the existing cart is returned and nothing is created.
func (s *CartService) CreateCart(ctx context.Context, orderID, name, actor string, confirm consolidation.Confirmer) (*Result, error) {
	unlock := s.lockOrder(orderID)
	defer unlock()

	res, err := s.createCart(ctx, orderID, name, actor, confirm)
	metrics.ObserveOperation("create", err)
	return res, err
}

func (s *CartService) createCart(ctx context.Context, orderID, name, actor string, confirm consolidation.Confirmer) (*Result, error) {
	order, current, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resolution, err := consolidation.ResolveName(ctx, name, current, "", confirm)
	if err != nil {
		return nil, err
	}
	if resolution.IsMerge() {
		existing, err := consolidation.Find(current, resolution.MergeTargetID)
		if err != nil {
			return nil, err
		}
		log.Printf("Create cart %q on order %s resolved to existing cart %s", name, orderID, existing.ID)
		return &Result{Order: order.WithCarts(current), Cart: &existing}, nil
	}

	at := s.now()
	cart := models.Cart{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		Name:           resolution.FinalName,
		Items:          []models.CartItem{},
		CreatedAt:      at,
		CreatedBy:      actor,
		LastModifiedAt: at,
		LastModifiedBy: actor,
	}
	next := append(models.CloneCarts(current), cart)
	if err := s.commit(ctx, orderID, next, "", cart.ID); err != nil {
		return nil, err
	}
	log.Printf("Created cart %s (%q) on order %s by %s", cart.ID, cart.Name, orderID, actor)
	return &Result{Order: order.WithCarts(next), Cart: &cart}, nil
}

// RenameCart renames a cart. When the new name collides and confirm chooses
// to merge, the renamed cart is folded into the colliding one.
func (s *CartService) RenameCart(ctx context.Context, orderID, cartID, name, actor string, confirm consolidation.Confirmer) (*Result, error) {
	unlock := s.lockOrder(orderID)
	defer unlock()

	res, err := s.renameCart(ctx, orderID, cartID, name, actor, confirm)
	metrics.ObserveOperation("rename", err)
	return res, err
}

func (s *CartService) renameCart(ctx context.Context, orderID, cartID, name, actor string, confirm consolidation.Confirmer) (*Result, error) {
	order, current, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := consolidation.Find(current, cartID); err != nil {
		return nil, err
	}

	resolution, err := consolidation.ResolveName(ctx, name, current, cartID, confirm)
	if err != nil {
		return nil, err
	}
	if resolution.IsMerge() {
		return s.executeMerge(ctx, order, current, MergeRequest{
			OrderID:  orderID,
			SourceID: cartID,
			TargetID: resolution.MergeTargetID,
			Actor:    actor,
			Trigger:  TriggerRename,
		})
	}

	next := models.CloneCarts(current)
	var renamed models.Cart
	for i := range next {
		if next[i].ID != cartID {
			continue
		}
		next[i].Name = resolution.FinalName
		next[i].Touch(actor, s.now())
		renamed = next[i]
	}
	if err := s.commit(ctx, orderID, next, "", cartID); err != nil {
		return nil, err
	}
	log.Printf("Renamed cart %s on order %s to %q by %s", cartID, orderID, renamed.Name, actor)
	return &Result{Order: order.WithCarts(next), Cart: &renamed}, nil
}

// AddItem appends a new line for productID to a cart. Lines are never
// grouped with existing lines for the same product.
func (s *CartService) AddItem(ctx context.Context, orderID, cartID, productID string, quantity int, actor string) (*Result, error) {
	unlock := s.lockOrder(orderID)
	defer unlock()

	res, err := s.addItem(ctx, orderID, cartID, productID, quantity, actor)
	metrics.ObserveOperation("add_item", err)
	return res, err
}

func (s *CartService) addItem(ctx context.Context, orderID, cartID, productID string, quantity int, actor string) (*Result, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	order, current, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := consolidation.Find(current, cartID); err != nil {
		return nil, err
	}

	at := s.now()
	next := models.CloneCarts(current)
	var updated models.Cart
	for i := range next {
		if next[i].ID != cartID {
			continue
		}
		next[i].Items = append(next[i].Items, models.CartItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    quantity,
			AddedAt:     at,
			AddedBy:     actor,
		})
		next[i].RecalculateTotal()
		next[i].Touch(actor, at)
		updated = next[i]
	}
	if err := s.commit(ctx, orderID, next, "", cartID); err != nil {
		return nil, err
	}
	return &Result{Order: order.WithCarts(next), Cart: &updated}, nil
}

// DeleteCart removes a cart and its items after confirmation.
func (s *CartService) DeleteCart(ctx context.Context, orderID, cartID, actor string, confirm consolidation.Confirmer) (*Result, error) {
	unlock := s.lockOrder(orderID)
	defer unlock()

	res, err := s.deleteCart(ctx, orderID, cartID, actor, confirm)
	metrics.ObserveOperation("delete", err)
	return res, err
}

func (s *CartService) deleteCart(ctx context.Context, orderID, cartID, actor string, confirm consolidation.Confirmer) (*Result, error) {
	order, current, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	victim, err := consolidation.Find(current, cartID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Delete cart %q and its %d items? This cannot be undone.", victim.Name, len(victim.Items))
	if err := ask(ctx, confirm, prompt); err != nil {
		return nil, err
	}

	next := make([]models.Cart, 0, len(current))
	for _, c := range current {
		if c.ID != cartID {
			next = append(next, c.Clone())
		}
	}
	if err := s.commit(ctx, orderID, next, "", cartID); err != nil {
		return nil, err
	}
	log.Printf("Deleted cart %s (%q) from order %s by %s", cartID, victim.Name, orderID, actor)
	return &Result{Order: order.WithCarts(next)}, nil
}

// MergeCartsDirect merges one cart into another after confirmation. Manual,
// drag-and-drop and context-menu triggers all go through here.
func (s *CartService) MergeCartsDirect(ctx context.Context, req MergeRequest, confirm consolidation.Confirmer) (*Result, error) {
	if req.Trigger == "" {
		req.Trigger = TriggerManual
	}
	unlock := s.lockOrder(req.OrderID)
	defer unlock()

	res, err := s.mergeCartsDirect(ctx, req, confirm)
	metrics.ObserveOperation("merge", err)
	if err != nil {
		log.Printf("Merge %s -> %s on order %s (%s) failed: %v", req.SourceID, req.TargetID, req.OrderID, req.Trigger, err)
	}
	return res, err
}

func (s *CartService) mergeCartsDirect(ctx context.Context, req MergeRequest, confirm consolidation.Confirmer) (*Result, error) {
	if req.SourceID == req.TargetID {
		return nil, consolidation.ErrSelfMerge
	}
	order, current, err := s.load(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	source, err := consolidation.Find(current, req.SourceID)
	if err != nil {
		return nil, err
	}
	target, err := consolidation.Find(current, req.TargetID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Merge %q (%d items) into %q? %q will be removed.", source.Name, len(source.Items), target.Name, source.Name)
	if err := ask(ctx, confirm, prompt); err != nil {
		return nil, err
	}
	return s.executeMerge(ctx, order, current, req)
}

// executeMerge runs the merge executor against current and commits.
func (s *CartService) executeMerge(ctx context.Context, order *models.Order, current []models.Cart, req MergeRequest) (*Result, error) {
	by := consolidation.Actor{Name: req.Actor, At: s.now()}
	next, err := consolidation.Merge(current, req.SourceID, req.TargetID, by)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, req.OrderID, next, req.SourceID, req.TargetID); err != nil {
		return nil, err
	}

	merged, _ := consolidation.Find(next, req.TargetID)
	metrics.ObserveMerge(string(req.Trigger))
	log.Printf("Merged cart %s into %s on order %s (%s) by %s", req.SourceID, req.TargetID, req.OrderID, req.Trigger, req.Actor)
	s.publish(rabbitmq.RoutingCartMerged, cartMergedEvent{
		OrderID:   req.OrderID,
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		Trigger:   string(req.Trigger),
		Actor:     req.Actor,
		ItemCount: len(merged.Items),
		Total:     merged.Total,
		MergedAt:  by.At,
	})
	return &Result{Order: order.WithCarts(next), Cart: &merged}, nil
}

// SuggestMerges scores the order's carts and returns mergeable pairs,
// strongest first.
func (s *CartService) SuggestMerges(ctx context.Context, orderID string) ([]Suggestion, error) {
	current, err := s.ListCarts(ctx, orderID)
	if err != nil {
		return nil, err
	}
	pairs := consolidation.FindMergeablePairs(current)
	out := make([]Suggestion, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, suggestionFrom(p))
	}
	return out, nil
}

// AutoMerge runs one auto-merge pass over the order and persists the result
// when anything was merged.
func (s *CartService) AutoMerge(ctx context.Context, orderID, actor string) (*AutoMergeSummary, error) {
	unlock := s.lockOrder(orderID)
	defer unlock()

	summary, err := s.autoMergeOrder(ctx, orderID, actor)
	metrics.ObserveOperation("auto_merge", err)
	return summary, err
}

func (s *CartService) autoMergeOrder(ctx context.Context, orderID, actor string) (*AutoMergeSummary, error) {
	order, current, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.autoMerge.EnableAutoMerge {
		log.Printf("Auto-merge disabled, order %s left unchanged", orderID)
		return &AutoMergeSummary{Order: order.WithCarts(current), Merged: []Suggestion{}}, nil
	}

	by := consolidation.Actor{Name: actor, At: s.now()}
	result := consolidation.AutoMerge(current, s.autoMerge, by)
	metrics.ObserveAutoMerge(len(result.Merged))

	merged := make([]Suggestion, 0, len(result.Merged))
	for _, p := range result.Merged {
		merged = append(merged, suggestionFrom(p))
	}
	if len(merged) == 0 {
		return &AutoMergeSummary{Order: order.WithCarts(current), Merged: merged}, nil
	}

	if err := s.commit(ctx, orderID, result.Carts, "", ""); err != nil {
		return nil, err
	}
	for range merged {
		metrics.ObserveMerge(string(TriggerAutoMerge))
	}
	log.Printf("Auto-merge on order %s merged %d pairs (threshold %d%%, strategy %s)", orderID, len(merged), s.autoMerge.AutoMergeThreshold, s.autoMerge.MergeStrategy)
	s.publish(rabbitmq.RoutingCartAutoMerged, cartAutoMergedEvent{
		OrderID:  orderID,
		Actor:    actor,
		Pairs:    merged,
		MergedAt: by.At,
	})
	return &AutoMergeSummary{Order: order.WithCarts(result.Carts), Merged: merged}, nil
}

// load fetches the order and a fresh copy of its stored carts. Mutators call
// it under the order lock, so writes from other services or processes made
// before the lock was taken are always seen.
func (s *CartService) load(ctx context.Context, orderID string) (*models.Order, []models.Cart, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, nil, err
	}
	current, err := s.snapshot(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, current, nil
}

func (s *CartService) snapshot(ctx context.Context, orderID string) ([]models.Cart, error) {
	fetched, err := s.carts.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch carts for order %s: %w", orderID, err)
	}
	if fetched == nil {
		fetched = []models.Cart{}
	}
	return fetched, nil
}

// commit persists next as the order's whole cart collection.
func (s *CartService) commit(ctx context.Context, orderID string, next []models.Cart, sourceID, targetID string) error {
	pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	start := time.Now()
	err := s.carts.ReplaceAll(pctx, orderID, next)
	metrics.ObservePersist(start, err)
	if err != nil {
		return &consolidation.PersistenceError{OrderID: orderID, SourceID: sourceID, TargetID: targetID, Err: err}
	}
	return nil
}

func (s *CartService) lockOrder(orderID string) func() {
	s.mu.Lock()
	l, ok := s.locks[orderID]
	if !ok {
		l = &orderLock{}
		s.locks[orderID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, orderID)
		}
		s.mu.Unlock()
	}
}

func (s *CartService) publish(routingKey string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

// ask requires a yes from confirm. A nil confirmer counts as no answer.
func ask(ctx context.Context, confirm consolidation.Confirmer, prompt string) error {
	if confirm == nil {
		return consolidation.ErrNotConfirmed
	}
	decision, err := confirm.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	switch decision {
	case consolidation.DecisionYes:
		return nil
	case consolidation.DecisionCancel:
		return consolidation.ErrCancelled
	default:
		return consolidation.ErrNotConfirmed
	}
}

func suggestionFrom(p consolidation.Pair) Suggestion {
	return Suggestion{
		SourceID:   p.CartA.ID,
		SourceName: p.CartA.Name,
		TargetID:   p.CartB.ID,
		TargetName: p.CartB.Name,
		Similarity: p.Similarity,
		Confidence: p.Confidence(),
		Reason:     p.Reason,
		Benefit:    p.Benefit(),
		ItemCount:  len(p.CartA.Items) + len(p.CartB.Items),
	}
}

type cartMergedEvent struct {
	OrderID   string    `json:"order_id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Trigger   string    `json:"trigger"`
	Actor     string    `json:"actor"`
	ItemCount int       `json:"item_count"`
	Total     float64   `json:"total"`
	MergedAt  time.Time `json:"merged_at"`
}

type cartAutoMergedEvent struct {
	OrderID  string       `json:"order_id"`
	Actor    string       `json:"actor"`
	Pairs    []Suggestion `json:"pairs"`
	MergedAt time.Time    `json:"merged_at"`
}
