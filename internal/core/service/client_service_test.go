package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

func newClientService(clients *stubClientRepo, products *stubProductRepo) *ClientService {
	return NewClientService(clients, products, &stubActivity{}, discardLogger)
}

func TestClientService_Create_AdminOnly(t *testing.T) {
	clients := newStubClientRepo()
	svc := newClientService(clients, newStubProductRepo())

	input := ports.CreateClientInput{FullName: "Cliente Uno", Email: "uno@example.com"}

	for _, actor := range []domain.Actor{supervisorActor("sup_1"), operatorActor("op_1"), clientActor("cli_1")} {
		if _, err := svc.CreateClient(context.Background(), actor, input); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("actor %v: expected ErrForbidden, got %v", actor.Roles, err)
		}
	}

	created, err := svc.CreateClient(context.Background(), adminActor(), input)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if created.FullName != "Cliente Uno" || created.ID == "" {
		t.Errorf("client not stored correctly: %+v", created)
	}
}

func TestClientService_AssignProduct_RoleGate(t *testing.T) {
	clients := newStubClientRepo()
	clients.seed("client_a", "")
	products := newStubProductRepo()
	products.seed("product_a", "Seguro Básico", "insurance", 100)
	svc := newClientService(clients, products)

	if _, err := svc.AssignProduct(context.Background(), clientActor("cli_1"), "client_a", "product_a"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("client caller: expected ErrForbidden, got %v", err)
	}

	binding, err := svc.AssignProduct(context.Background(), operatorActor("op_1"), "client_a", "product_a")
	if err != nil {
		t.Fatalf("operator assignment failed: %v", err)
	}
	if binding.ProductID != "product_a" || binding.ID == "" {
		t.Errorf("binding metadata wrong: %+v", binding)
	}
}

func TestClientService_AssignProduct_DuplicatesPermitted(t *testing.T) {
	clients := newStubClientRepo()
	clients.seed("client_a", "")
	products := newStubProductRepo()
	products.seed("product_a", "Seguro Básico", "insurance", 100)
	svc := newClientService(clients, products)

	for i := 0; i < 2; i++ {
		if _, err := svc.AssignProduct(context.Background(), adminActor(), "client_a", "product_a"); err != nil {
			t.Fatalf("assignment %d failed: %v", i+1, err)
		}
	}
	if n := len(clients.clients["client_a"].Products); n != 2 {
		t.Errorf("bindings are append-only, expected 2, got %d", n)
	}
}

func TestClientService_AssignProduct_MissingTargets(t *testing.T) {
	clients := newStubClientRepo()
	clients.seed("client_a", "")
	products := newStubProductRepo()
	products.seed("product_a", "Seguro Básico", "insurance", 100)
	svc := newClientService(clients, products)

	if _, err := svc.AssignProduct(context.Background(), adminActor(), "missing", "product_a"); !errors.Is(err, domain.ErrClientNotFound) {
		t.Errorf("missing client: expected ErrClientNotFound, got %v", err)
	}
	if _, err := svc.AssignProduct(context.Background(), adminActor(), "client_a", "missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("missing product: expected ErrProductNotFound, got %v", err)
	}
}

func TestClientService_AddComment_AppendsWithAuthor(t *testing.T) {
	clients := newStubClientRepo()
	clients.seed("client_a", "")
	svc := newClientService(clients, newStubProductRepo())

	comment, err := svc.AddComment(context.Background(), operatorActor("op_1"), "client_a", "renewal due next month")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.AuthorID != "op_1" {
		t.Errorf("author: want op_1, got %q", comment.AuthorID)
	}
	if len(clients.clients["client_a"].Comments) != 1 {
		t.Error("comment must be appended to the client")
	}

	if _, err := svc.AddComment(context.Background(), operatorActor("op_1"), "missing", "x"); !errors.Is(err, domain.ErrClientNotFound) {
		t.Errorf("missing client: expected ErrClientNotFound, got %v", err)
	}
}
