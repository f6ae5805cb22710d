package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests. Each mirrors the
// filter semantics of the real Mongo implementation.
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

// --- users ---

type stubUserRepo struct {
	users     map[string]*domain.User
	seq       int
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) seed(id, username string, active bool, roles ...domain.Role) *domain.User {
	u := &domain.User{
		ID:        id,
		Username:  username,
		IsActive:  active,
		Roles:     domain.RoleSet(roles),
		CreatedAt: time.Now().UTC(),
	}
	r.users[id] = u
	return u
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := *user
	clone.ID = fmt.Sprintf("user_%d", r.seq)
	r.users[clone.ID] = &clone
	return &clone, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, page, limit int) ([]*domain.User, int64, error) {
	var out []*domain.User
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, int64(len(r.users)), nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if u.Roles.Has(role) {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, username, email *string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if username != nil {
		u.Username = *username
	}
	if email != nil {
		u.Email = *email
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *stubUserRepo) SetRoles(_ context.Context, id string, roles domain.RoleSet) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Roles = roles
	return nil
}

func (r *stubUserRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

// --- supervisor→operator bindings ---

type stubBindingRepo struct {
	operators map[string]map[string]struct{} // supervisorID → set of operatorIDs
}

func newStubBindingRepo() *stubBindingRepo {
	return &stubBindingRepo{operators: make(map[string]map[string]struct{})}
}

func (r *stubBindingRepo) Bind(_ context.Context, supervisorID, operatorID string) error {
	set, ok := r.operators[supervisorID]
	if !ok {
		set = make(map[string]struct{})
		r.operators[supervisorID] = set
	}
	set[operatorID] = struct{}{}
	return nil
}

func (r *stubBindingRepo) CountOperators(_ context.Context, supervisorID string) (int64, error) {
	return int64(len(r.operators[supervisorID])), nil
}

// --- leads ---

type stubLeadRepo struct {
	leads     map[string]*domain.Lead
	seq       int
	writes    int // mutating calls, for single-write assertions
	createErr error
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{leads: make(map[string]*domain.Lead)}
}

func (r *stubLeadRepo) seed(id string, status domain.LeadStatus, operatorID string) *domain.Lead {
	l := &domain.Lead{
		ID:                 id,
		FirstName:          "Ana",
		LastName:           "López",
		Email:              "ana@example.com",
		Phone:              "+5215512345678",
		Status:             status,
		AssignedOperatorID: operatorID,
		Comments:           []domain.Comment{},
		CreatedAt:          time.Now().UTC(),
	}
	r.leads[id] = l
	return l
}

func (r *stubLeadRepo) Create(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	clone := *lead
	clone.ID = fmt.Sprintf("lead_%d", r.seq)
	r.leads[clone.ID] = &clone
	return &clone, nil
}

func (r *stubLeadRepo) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	l, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *stubLeadRepo) List(_ context.Context, f ports.ListLeadsFilter) ([]*domain.Lead, int64, error) {
	var out []*domain.Lead
	for _, l := range r.leads {
		if f.OperatorID != "" && l.AssignedOperatorID != f.OperatorID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubLeadRepo) UpdateFields(_ context.Context, id string, patch ports.LeadFieldPatch) (*domain.Lead, error) {
	l, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	r.writes++
	r.applyPatch(l, patch)
	clone := *l
	return &clone, nil
}

// UpdateStatus mirrors the Mongo compare-and-set.
func (r *stubLeadRepo) UpdateStatus(_ context.Context, id string, from, to domain.LeadStatus) error {
	l, ok := r.leads[id]
	if !ok {
		return domain.ErrLeadNotFound
	}
	if l.Status != from {
		return domain.ErrConcurrentUpdate
	}
	r.writes++
	l.Status = to
	return nil
}

// UpdateStatusAndFields mirrors the combined single-document write.
func (r *stubLeadRepo) UpdateStatusAndFields(_ context.Context, id string, from, to domain.LeadStatus, patch ports.LeadFieldPatch) (*domain.Lead, error) {
	l, ok := r.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	if l.Status != from {
		return nil, domain.ErrConcurrentUpdate
	}
	r.writes++
	l.Status = to
	r.applyPatch(l, patch)
	clone := *l
	return &clone, nil
}

func (r *stubLeadRepo) applyPatch(l *domain.Lead, patch ports.LeadFieldPatch) {
	if patch.FirstName != nil {
		l.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		l.LastName = *patch.LastName
	}
	if patch.Email != nil {
		l.Email = *patch.Email
	}
	if patch.Phone != nil {
		l.Phone = *patch.Phone
	}
	if patch.AssignedOperatorID != nil {
		l.AssignedOperatorID = *patch.AssignedOperatorID
	}
}

func (r *stubLeadRepo) AppendComment(_ context.Context, id string, comment domain.Comment) error {
	l, ok := r.leads[id]
	if !ok {
		return domain.ErrLeadNotFound
	}
	l.Comments = append(l.Comments, comment)
	return nil
}

func (r *stubLeadRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.leads[id]; !ok {
		return domain.ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *stubLeadRepo) CountByStatus(_ context.Context, status domain.LeadStatus) (int64, error) {
	var n int64
	for _, l := range r.leads {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *stubLeadRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.leads)), nil
}

// --- clients ---

type stubClientRepo struct {
	clients   map[string]*domain.Client
	seq       int
	createErr error
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[string]*domain.Client)}
}

func (r *stubClientRepo) seed(id, userID string) *domain.Client {
	c := &domain.Client{
		ID:        id,
		FullName:  "Cliente Uno",
		UserID:    userID,
		Products:  []domain.ClientProductBinding{},
		Comments:  []domain.Comment{},
		CreatedAt: time.Now().UTC(),
	}
	r.clients[id] = c
	return c
}

func (r *stubClientRepo) Create(_ context.Context, client *domain.Client) (*domain.Client, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	clone := *client
	clone.ID = fmt.Sprintf("client_%d", r.seq)
	r.clients[clone.ID] = &clone
	return &clone, nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id string) (*domain.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubClientRepo) FindByUserID(_ context.Context, userID string) (*domain.Client, error) {
	for _, c := range r.clients {
		if c.UserID == userID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r *stubClientRepo) List(_ context.Context, page, limit int) ([]*domain.Client, int64, error) {
	var out []*domain.Client
	for _, c := range r.clients {
		clone := *c
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) AppendBinding(_ context.Context, id string, binding domain.ClientProductBinding) error {
	c, ok := r.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	c.Products = append(c.Products, binding)
	return nil
}

func (r *stubClientRepo) AppendComment(_ context.Context, id string, comment domain.Comment) error {
	c, ok := r.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	c.Comments = append(c.Comments, comment)
	return nil
}

func (r *stubClientRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.clients)), nil
}

func (r *stubClientRepo) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, c := range r.clients {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *stubClientRepo) ListAllBindings(_ context.Context) ([]domain.ClientProductBinding, error) {
	var out []domain.ClientProductBinding
	for _, c := range r.clients {
		out = append(out, c.Products...)
	}
	return out, nil
}

// --- products ---

type stubProductRepo struct {
	products map[string]*domain.Product
	seq      int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[string]*domain.Product)}
}

func (r *stubProductRepo) seed(id, name, ptype string, price float64) *domain.Product {
	p := &domain.Product{ID: id, Name: name, Type: ptype, Price: price, CreatedAt: time.Now().UTC()}
	r.products[id] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.seq++
	clone := *product
	clone.ID = fmt.Sprintf("product_%d", r.seq)
	r.products[clone.ID] = &clone
	return &clone, nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) List(_ context.Context, page, limit int) ([]*domain.Product, int64, error) {
	all, err := r.ListAll(context.Background())
	return all, int64(len(all)), err
}

func (r *stubProductRepo) ListAll(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range r.products {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if _, ok := r.products[product.ID]; !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *product
	r.products[product.ID] = &clone
	return product, nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// --- claims ---

type stubClaimRepo struct {
	claims map[string]*domain.Claim
	seq    int
}

func newStubClaimRepo() *stubClaimRepo {
	return &stubClaimRepo{claims: make(map[string]*domain.Claim)}
}

func (r *stubClaimRepo) seed(id, clientID string, status domain.ClaimStatus) *domain.Claim {
	c := &domain.Claim{
		ID:          id,
		ClientID:    clientID,
		Description: "damaged goods",
		Status:      status,
		Files:       []domain.FileRef{},
		Comments:    []domain.Comment{},
		CreatedAt:   time.Now().UTC(),
	}
	r.claims[id] = c
	return c
}

func (r *stubClaimRepo) Create(_ context.Context, claim *domain.Claim) (*domain.Claim, error) {
	r.seq++
	clone := *claim
	clone.ID = fmt.Sprintf("claim_%d", r.seq)
	r.claims[clone.ID] = &clone
	return &clone, nil
}

func (r *stubClaimRepo) FindByID(_ context.Context, id string) (*domain.Claim, error) {
	c, ok := r.claims[id]
	if !ok {
		return nil, domain.ErrClaimNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubClaimRepo) List(_ context.Context, f ports.ListClaimsFilter) ([]*domain.Claim, int64, error) {
	var out []*domain.Claim
	for _, c := range r.claims {
		if f.ClientID != "" && c.ClientID != f.ClientID {
			continue
		}
		if f.OperatorID != "" && c.AssignedOperatorID != f.OperatorID {
			continue
		}
		if f.SupervisorID != "" && c.AssignedSupervisorID != f.SupervisorID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubClaimRepo) UpdateFields(_ context.Context, id string, patch ports.ClaimFieldPatch) (*domain.Claim, error) {
	c, ok := r.claims[id]
	if !ok {
		return nil, domain.ErrClaimNotFound
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	clone := *c
	return &clone, nil
}

// UpdateStatus mirrors the Mongo compare-and-set.
func (r *stubClaimRepo) UpdateStatus(_ context.Context, id string, from, to domain.ClaimStatus) error {
	c, ok := r.claims[id]
	if !ok {
		return domain.ErrClaimNotFound
	}
	if c.Status != from {
		return domain.ErrConcurrentUpdate
	}
	c.Status = to
	return nil
}

func (r *stubClaimRepo) SetOperator(_ context.Context, id, operatorID string) error {
	c, ok := r.claims[id]
	if !ok {
		return domain.ErrClaimNotFound
	}
	c.AssignedOperatorID = operatorID
	return nil
}

func (r *stubClaimRepo) SetSupervisor(_ context.Context, id, supervisorID string) error {
	c, ok := r.claims[id]
	if !ok {
		return domain.ErrClaimNotFound
	}
	c.AssignedSupervisorID = supervisorID
	return nil
}

func (r *stubClaimRepo) AppendComment(_ context.Context, id string, comment domain.Comment) error {
	c, ok := r.claims[id]
	if !ok {
		return domain.ErrClaimNotFound
	}
	c.Comments = append(c.Comments, comment)
	return nil
}

func (r *stubClaimRepo) AppendFile(_ context.Context, id string, file domain.FileRef) error {
	c, ok := r.claims[id]
	if !ok {
		return domain.ErrClaimNotFound
	}
	c.Files = append(c.Files, file)
	return nil
}

func (r *stubClaimRepo) CountByStatus(_ context.Context, status domain.ClaimStatus) (int64, error) {
	var n int64
	for _, c := range r.claims {
		if c.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *stubClaimRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.claims)), nil
}

func (r *stubClaimRepo) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, c := range r.claims {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *stubClaimRepo) CountForSupervisor(_ context.Context, supervisorID string) (int64, error) {
	var n int64
	for _, c := range r.claims {
		if c.AssignedSupervisorID == supervisorID {
			n++
		}
	}
	return n, nil
}

func (r *stubClaimRepo) CountResolvedForSupervisor(_ context.Context, supervisorID string) (int64, error) {
	var n int64
	for _, c := range r.claims {
		if c.AssignedSupervisorID == supervisorID && c.Status == domain.ClaimStatusResolved {
			n++
		}
	}
	return n, nil
}

// --- conversion lock ---

type stubLocker struct {
	held       map[string]bool
	acquireErr error
	denyAll    bool
	acquired   int
	released   int
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (l *stubLocker) Acquire(_ context.Context, leadID string) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.denyAll || l.held[leadID] {
		return false, nil
	}
	l.held[leadID] = true
	l.acquired++
	return true, nil
}

func (l *stubLocker) Release(_ context.Context, leadID string) error {
	delete(l.held, leadID)
	l.released++
	return nil
}

// --- activity recorder ---

type stubActivity struct {
	entries []domain.ActivityEntry
}

func (a *stubActivity) Record(entry domain.ActivityEntry) {
	a.entries = append(a.entries, entry)
}

// --- file store ---

type stubObject struct {
	data        []byte
	contentType string
}

type stubFileStore struct {
	keys    []string
	objects map[string]stubObject
	putErr  error
}

func (f *stubFileStore) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = make(map[string]stubObject)
	}
	f.keys = append(f.keys, key)
	f.objects[key] = stubObject{data: data, contentType: contentType}
	return nil
}

func (f *stubFileStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	obj, ok := f.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("object %s not stored", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// --- actors ---

func adminActor() domain.Actor {
	return domain.Actor{UserID: "admin_1", Roles: domain.RoleSet{domain.RoleAdmin}}
}

func supervisorActor(id string) domain.Actor {
	return domain.Actor{UserID: id, Roles: domain.RoleSet{domain.RoleSupervisor}}
}

func operatorActor(id string) domain.Actor {
	return domain.Actor{UserID: id, Roles: domain.RoleSet{domain.RoleOperator}}
}

func clientActor(id string) domain.Actor {
	return domain.Actor{UserID: id, Roles: domain.RoleSet{domain.RoleClient}}
}
