package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

// fakeDynamo understands only the expressions DynamoOrderRepo sends.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m["order_id"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dyn.GetItemInput, _ ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dyn.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dyn.PutItemInput, _ ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(order_id)" {
		if _, ok := f.items[k]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.items[k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dyn.UpdateItemInput, _ ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[keyOf(in.Key)]
	cond := aws.ToString(in.ConditionExpression)
	flag := strings.TrimSuffix(strings.TrimPrefix(cond, "attribute_exists(order_id) AND "), " = :false")
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	if b, isBool := item[flag].(*types.AttributeValueMemberBOOL); isBool && b.Value {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("flag set")}
	}

	next := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		next[k] = v
	}
	for _, assign := range strings.Split(strings.TrimPrefix(aws.ToString(in.UpdateExpression), "SET "), ",") {
		name, placeholder, _ := strings.Cut(strings.TrimSpace(assign), " = ")
		next[name] = in.ExpressionAttributeValues[placeholder]
	}
	f.items[keyOf(in.Key)] = next
	return &dyn.UpdateItemOutput{Attributes: next}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dyn.QueryInput, _ ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid := in.ExpressionAttributeValues[":uid"].(*types.AttributeValueMemberS).Value
	var out []map[string]types.AttributeValue
	for _, it := range f.items {
		if it["user_id"].(*types.AttributeValueMemberS).Value == uid {
			out = append(out, it)
		}
	}
	return &dyn.QueryOutput{Items: out}, nil
}

func TestDynamoOrderRepo_CreateGetList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewDynamoOrderRepo(newFakeDynamo(), "orders")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.nowFunc = func() time.Time { return fixed }

	user := uuid.New()
	line := models.CartLine{ProductID: uuid.New(), Slug: "shirt", Name: "Shirt", Price: 4500, Quantity: 2, CountInStock: 9}
	o := newOrder(user, line)
	require.NoError(t, r.CreateOrder(ctx, o))
	assert.Equal(t, fixed, o.CreatedAt)

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got.UserID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, line, got.Items[0].CartLine)
	assert.Equal(t, o.TotalPrice, got.TotalPrice)
	assert.Equal(t, o.ShippingAddress, got.ShippingAddress)
	assert.True(t, fixed.Equal(got.CreatedAt))

	require.ErrorIs(t, r.CreateOrder(ctx, o), ErrConflict)

	list, err := r.ListOrdersByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = r.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoOrderRepo_MarkPaid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewDynamoOrderRepo(newFakeDynamo(), "orders")
	o := newOrder(uuid.New(), models.CartLine{ProductID: uuid.New(), Name: "x", Price: 100, Quantity: 1})
	require.NoError(t, r.CreateOrder(ctx, o))

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	paid, err := r.MarkPaid(ctx, o.ID, at, models.PaymentResult{ID: "PAY-1", Status: "COMPLETED"})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, at.Equal(*paid.PaidAt))
	assert.Equal(t, "PAY-1", paid.PaymentResult.ID)

	_, err = r.MarkPaid(ctx, o.ID, at.Add(time.Minute), models.PaymentResult{ID: "PAY-2"})
	assert.ErrorIs(t, err, ErrStatusMismatch)

	_, err = r.MarkPaid(ctx, uuid.New(), at, models.PaymentResult{})
	assert.ErrorIs(t, err, ErrNotFound)

	delivered, err := r.MarkDelivered(ctx, o.ID, at)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.Equal(t, "PAY-1", delivered.PaymentResult.ID)
}

func TestDynamoOrderRepo_MarkPaid_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewDynamoOrderRepo(newFakeDynamo(), "orders")
	o := newOrder(uuid.New(), models.CartLine{ProductID: uuid.New(), Name: "x", Price: 100, Quantity: 1})
	require.NoError(t, r.CreateOrder(ctx, o))

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.MarkPaid(ctx, o.ID, time.Now(), models.PaymentResult{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, ErrStatusMismatch), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
}
