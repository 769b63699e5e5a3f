package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/money"
)

const userIndex = "user_id-index"

type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error)
	PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error)
	Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error)
}

// DynamoOrderRepo stores orders in a DynamoDB table keyed by order_id, with a
// global secondary index on user_id. Line items live inside the order item.
type DynamoOrderRepo struct {
	client    DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

func NewDynamoOrderRepo(client DynamoDBAPI, tableName string) *DynamoOrderRepo {
	return &DynamoOrderRepo{client: client, tableName: tableName, nowFunc: time.Now}
}

type itemRecord struct {
	ProductID    string `dynamodbav:"product_id"`
	Slug         string `dynamodbav:"slug"`
	Name         string `dynamodbav:"name"`
	Image        string `dynamodbav:"image"`
	Price        int64  `dynamodbav:"price_cents"`
	Quantity     int    `dynamodbav:"quantity"`
	CountInStock int    `dynamodbav:"count_in_stock"`
}

type orderRecord struct {
	OrderID         string               `dynamodbav:"order_id"`
	UserID          string               `dynamodbav:"user_id"`
	Items           []itemRecord         `dynamodbav:"order_items"`
	ShippingAddress models.Address       `dynamodbav:"shipping_address"`
	PaymentMethod   string               `dynamodbav:"payment_method"`
	PaymentResult   models.PaymentResult `dynamodbav:"payment_result"`
	ItemsPrice      int64                `dynamodbav:"items_price_cents"`
	ShippingPrice   int64                `dynamodbav:"shipping_price_cents"`
	TaxPrice        int64                `dynamodbav:"tax_price_cents"`
	TotalPrice      int64                `dynamodbav:"total_price_cents"`
	IsPaid          bool                 `dynamodbav:"is_paid"`
	PaidAt          *time.Time           `dynamodbav:"paid_at,omitempty"`
	IsDelivered     bool                 `dynamodbav:"is_delivered"`
	DeliveredAt     *time.Time           `dynamodbav:"delivered_at,omitempty"`
	CreatedAt       time.Time            `dynamodbav:"created_at"`
	UpdatedAt       time.Time            `dynamodbav:"updated_at"`
}

func toRecord(o *models.Order) orderRecord {
	rec := orderRecord{
		OrderID:         o.ID.String(),
		UserID:          o.UserID.String(),
		Items:           make([]itemRecord, 0, len(o.Items)),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentResult:   o.PaymentResult,
		ItemsPrice:      o.ItemsPrice.Cents(),
		ShippingPrice:   o.ShippingPrice.Cents(),
		TaxPrice:        o.TaxPrice.Cents(),
		TotalPrice:      o.TotalPrice.Cents(),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		rec.Items = append(rec.Items, itemRecord{
			ProductID:    it.ProductID.String(),
			Slug:         it.Slug,
			Name:         it.Name,
			Image:        it.Image,
			Price:        it.Price.Cents(),
			Quantity:     it.Quantity,
			CountInStock: it.CountInStock,
		})
	}
	return rec
}

func fromRecord(rec orderRecord) (*models.Order, error) {
	id, err := uuid.Parse(rec.OrderID)
	if err != nil {
		return nil, fmt.Errorf("order_id: %w", err)
	}
	uid, err := uuid.Parse(rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("user_id: %w", err)
	}
	o := &models.Order{
		ID:              id,
		UserID:          uid,
		Items:           make([]models.OrderItem, 0, len(rec.Items)),
		ShippingAddress: rec.ShippingAddress,
		PaymentMethod:   models.PaymentMethod(rec.PaymentMethod),
		PaymentResult:   rec.PaymentResult,
		ItemsPrice:      money.FromCents(rec.ItemsPrice),
		ShippingPrice:   money.FromCents(rec.ShippingPrice),
		TaxPrice:        money.FromCents(rec.TaxPrice),
		TotalPrice:      money.FromCents(rec.TotalPrice),
		IsPaid:          rec.IsPaid,
		PaidAt:          rec.PaidAt,
		IsDelivered:     rec.IsDelivered,
		DeliveredAt:     rec.DeliveredAt,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	for i, it := range rec.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("order_items[%d].product_id: %w", i, err)
		}
		o.Items = append(o.Items, models.OrderItem{
			OrderID:  id,
			Position: i,
			CartLine: models.CartLine{
				ProductID:    pid,
				Slug:         it.Slug,
				Name:         it.Name,
				Image:        it.Image,
				Price:        money.FromCents(it.Price),
				Quantity:     it.Quantity,
				CountInStock: it.CountInStock,
			},
		})
	}
	return o, nil
}

func orderKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: id.String()},
	}
}

func isConditionFailed(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

func (r *DynamoOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	now := r.nowFunc().UTC()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}

	item, err := attributevalue.MarshalMap(toRecord(order))
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(order_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrConflict
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (r *DynamoOrderRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	out, err := r.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            orderKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return fromRecord(rec)
}

func (r *DynamoOrderRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	p := dyn.NewQueryPaginator(r.client, &dyn.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(userIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID.String()},
		},
	})

	var orders []models.Order
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query orders: %w", err)
		}
		var recs []orderRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		for _, rec := range recs {
			o, err := fromRecord(rec)
			if err != nil {
				return nil, err
			}
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (r *DynamoOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time, result models.PaymentResult) (*models.Order, error) {
	pr, err := attributevalue.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal payment result: %w", err)
	}
	ts := &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)}
	return r.transition(ctx, id, "is_paid", "SET is_paid = :true, paid_at = :at, payment_result = :pr, updated_at = :at",
		map[string]types.AttributeValue{":at": ts, ":pr": pr})
}

func (r *DynamoOrderRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error) {
	ts := &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)}
	return r.transition(ctx, id, "is_delivered", "SET is_delivered = :true, delivered_at = :at, updated_at = :at",
		map[string]types.AttributeValue{":at": ts})
}

// transition performs a conditional update that only succeeds while flag is
// still false.
func (r *DynamoOrderRepo) transition(ctx context.Context, id uuid.UUID, flag, update string, values map[string]types.AttributeValue) (*models.Order, error) {
	values[":true"] = &types.AttributeValueMemberBOOL{Value: true}
	values[":false"] = &types.AttributeValueMemberBOOL{Value: false}

	out, err := r.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       orderKey(id),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("attribute_exists(order_id) AND " + flag + " = :false"),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if !isConditionFailed(err) {
			return nil, fmt.Errorf("update item: %w", err)
		}
		if _, gerr := r.GetOrder(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, ErrStatusMismatch
	}

	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return fromRecord(rec)
}
