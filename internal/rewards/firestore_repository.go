package rewards

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	accountsCollection   = "rewardAccounts"
	claimCodesCollection = "claimCodes"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed repository. Accounts live
// in rewardAccounts/{userID}; issued claim codes in claimCodes/{code}.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Get(ctx context.Context, userID string) (*Account, error) {
	doc, err := r.client.Collection(accountsCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	var account Account
	if err := doc.DataTo(&account); err != nil {
		return nil, fmt.Errorf("unmarshal reward account: %w", err)
	}
	account.UserID = userID
	return &account, nil
}

func (r *firestoreRepository) Create(ctx context.Context, account *Account) error {
	_, err := r.client.Collection(accountsCollection).Doc(account.UserID).Create(ctx, account)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

// Update persists the account inside a transaction that re-reads the stored
// version. A mismatch means another writer got there first.
func (r *firestoreRepository) Update(ctx context.Context, account *Account) error {
	docRef := r.client.Collection(accountsCollection).Doc(account.UserID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if status.Code(err) == codes.NotFound {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}

		stored, err := doc.DataAt("version")
		if err != nil {
			return fmt.Errorf("read stored version: %w", err)
		}
		if version, ok := stored.(int64); !ok || version != account.Version {
			return ErrConflict
		}

		next := account.Clone()
		next.Version = account.Version + 1
		return tx.Set(docRef, next)
	})
	if err != nil {
		return err
	}

	account.Version++
	return nil
}

func (r *firestoreRepository) List(ctx context.Context) ([]Account, error) {
	iter := r.client.Collection(accountsCollection).Documents(ctx)
	defer iter.Stop()

	var accounts []Account
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var account Account
		if err := doc.DataTo(&account); err != nil {
			return nil, fmt.Errorf("unmarshal reward account %s: %w", doc.Ref.ID, err)
		}
		account.UserID = doc.Ref.ID
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (r *firestoreRepository) ReserveClaimCode(ctx context.Context, code string) error {
	_, err := r.client.Collection(claimCodesCollection).Doc(code).Create(ctx, map[string]any{
		"issued_at": time.Now().UTC(),
	})
	if status.Code(err) == codes.AlreadyExists {
		return ErrCodeCollision
	}
	return err
}
