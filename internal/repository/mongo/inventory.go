// Package mongo реализует репозиторий остатков поверх MongoDB
// Per-record сериализация мутаций делается атомарным FindOneAndUpdate
// с условием на количество (CAS), а не блокировкой
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// inventoryDocument представляет документ в коллекции MongoDB
type inventoryDocument struct {
	ID        string    `bson:"_id"`
	ProductID string    `bson:"product_id"`
	Quantity  int64     `bson:"quantity"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d inventoryDocument) toModel() repository.Inventory {
	return repository.Inventory{
		ID:        d.ID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		UpdatedAt: d.UpdatedAt,
	}
}

// Inventories реализует repository.InventoryRepository поверх MongoDB
//
// MongoDB не участвует в транзакции заказа, поэтому мутации регистрируют
// компенсации в журнале из контекста: при откате транзакции списания
// возвращаются обратными $inc
type Inventories struct {
	col    *mongo.Collection
	logger *zap.Logger
}

// NewInventories создаёт новый MongoDB репозиторий остатков
// Создаёт уникальный индекс на product_id: ровно один документ на товар
func NewInventories(client *mongo.Client, dbName string, logger *zap.Logger) *Inventories {
	col := client.Database(dbName).Collection("inventories")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := col.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn("failed to ensure product_id index", zap.Error(err))
	}

	return &Inventories{col: col, logger: logger}
}

// Create создаёт запись остатка для товара
func (r *Inventories) Create(ctx context.Context, inv repository.Inventory) error {
	doc := inventoryDocument{
		ID:        inv.ID,
		ProductID: inv.ProductID,
		Quantity:  inv.Quantity,
		UpdatedAt: inv.UpdatedAt,
	}
	err := withRetry(ctx, r.logger, "inventories.create", func() error {
		_, err := r.col.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &errs.DuplicateProductError{ProductID: inv.ProductID}
		}
		return err
	}

	if j, ok := repository.JournalFrom(ctx); ok {
		j.Record(func(ctx context.Context) {
			if _, err := r.col.DeleteOne(ctx, bson.M{"_id": inv.ID}); err != nil {
				r.logger.Error("failed to compensate inventory create", zap.Error(err))
			}
		})
	}
	return nil
}

// GetByID получает запись по inventory ID
func (r *Inventories) GetByID(ctx context.Context, id string) (repository.Inventory, error) {
	return r.findOne(ctx, bson.M{"_id": id},
		&errs.NotFoundError{Entity: errs.EntityInventory, ID: id})
}

// GetByProductID получает запись по ID товара
func (r *Inventories) GetByProductID(ctx context.Context, productID string) (repository.Inventory, error) {
	return r.findOne(ctx, bson.M{"product_id": productID},
		&errs.NotFoundError{Entity: errs.EntityInventoryForProduct, ID: productID})
}

// GetByProductIDs получает записи по списку ID товаров одним запросом
func (r *Inventories) GetByProductIDs(ctx context.Context, productIDs []string) ([]repository.Inventory, error) {
	var result []repository.Inventory
	err := withRetry(ctx, r.logger, "inventories.get_by_product_ids", func() error {
		cur, err := r.col.Find(ctx, bson.M{"product_id": bson.M{"$in": productIDs}})
		if err != nil {
			return err
		}
		result, err = decodeAll(ctx, cur, len(productIDs))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdjustByProductID атомарно применяет операцию к остатку товара
func (r *Inventories) AdjustByProductID(ctx context.Context, productID string, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	return r.adjust(ctx, bson.M{"product_id": productID},
		&errs.NotFoundError{Entity: errs.EntityInventoryForProduct, ID: productID}, amount, op)
}

// AdjustByInventoryID атомарно применяет операцию по inventory ID
func (r *Inventories) AdjustByInventoryID(ctx context.Context, id string, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	return r.adjust(ctx, bson.M{"_id": id},
		&errs.NotFoundError{Entity: errs.EntityInventory, ID: id}, amount, op)
}

// List возвращает все записи остатков
func (r *Inventories) List(ctx context.Context) ([]repository.Inventory, error) {
	var result []repository.Inventory
	err := withRetry(ctx, r.logger, "inventories.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
		cur, err := r.col.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		result, err = decodeAll(ctx, cur, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete удаляет запись остатка
func (r *Inventories) Delete(ctx context.Context, id string) error {
	var doc inventoryDocument
	err := withRetry(ctx, r.logger, "inventories.delete", func() error {
		return r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &errs.NotFoundError{Entity: errs.EntityInventory, ID: id}
		}
		return err
	}

	if j, ok := repository.JournalFrom(ctx); ok {
		j.Record(func(ctx context.Context) {
			if _, err := r.col.InsertOne(ctx, doc); err != nil {
				r.logger.Error("failed to compensate inventory delete", zap.Error(err))
			}
		})
	}
	return nil
}

// adjust выполняет операцию одним атомарным FindOneAndUpdate
// Для DECREASE условие quantity >= amount входит в фильтр: проверка и
// списание неразделимы, конкурирующие списания не могут увести остаток
// в минус. Промах фильтра уточняется вторым чтением: нет документа
// или нехватка остатка
func (r *Inventories) adjust(ctx context.Context, filter bson.M, notFound error, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	if amount < 0 {
		return repository.Inventory{}, &errs.InvalidQuantityError{Quantity: amount}
	}

	now := time.Now().UTC()
	var (
		condFilter  = filter
		update      bson.M
		undo        bson.M
		undoGuarded bool
	)

	switch op {
	case repository.OpIncrease:
		update = bson.M{
			"$inc": bson.M{"quantity": amount},
			"$set": bson.M{"updated_at": now},
		}
		undo = bson.M{"$inc": bson.M{"quantity": -amount}}
	case repository.OpDecrease:
		condFilter = bson.M{}
		for k, v := range filter {
			condFilter[k] = v
		}
		condFilter["quantity"] = bson.M{"$gte": amount}
		update = bson.M{
			"$inc": bson.M{"quantity": -amount},
			"$set": bson.M{"updated_at": now},
		}
		undo = bson.M{"$inc": bson.M{"quantity": amount}}
	case repository.OpSet:
		current, err := r.findOne(ctx, filter, notFound)
		if err != nil {
			return repository.Inventory{}, err
		}
		update = bson.M{
			"$set": bson.M{"quantity": amount, "updated_at": now},
		}
		undo = bson.M{"$set": bson.M{"quantity": current.Quantity, "updated_at": current.UpdatedAt}}
		undoGuarded = true
	default:
		return repository.Inventory{}, fmt.Errorf("unknown inventory operation: %s", op)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc inventoryDocument
	err := withRetry(ctx, r.logger, "inventories.adjust", func() error {
		return r.col.FindOneAndUpdate(ctx, condFilter, update, opts).Decode(&doc)
	})
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return repository.Inventory{}, err
		}
		if op != repository.OpDecrease {
			return repository.Inventory{}, notFound
		}
		// фильтр с $gte не отличает отсутствие документа от нехватки остатка
		current, ferr := r.findOne(ctx, filter, notFound)
		if ferr != nil {
			return repository.Inventory{}, ferr
		}
		return repository.Inventory{}, &errs.InsufficientStockError{
			ProductID: current.ProductID,
			Available: current.Quantity,
			Requested: amount,
		}
	}

	if j, ok := repository.JournalFrom(ctx); ok {
		id := doc.ID
		applied := doc.Quantity
		j.Record(func(ctx context.Context) {
			undoFilter := bson.M{"_id": id}
			if undoGuarded {
				// у абсолютной установки обратной операции нет: снимок
				// возвращается только если количество с тех пор не менялось,
				// закоммиченные конкурентные $inc откат не затирает
				undoFilter["quantity"] = applied
			}
			if _, err := r.col.UpdateOne(ctx, undoFilter, undo); err != nil {
				r.logger.Error("failed to compensate inventory adjustment", zap.Error(err))
			}
		})
	}
	return doc.toModel(), nil
}

func (r *Inventories) findOne(ctx context.Context, filter bson.M, notFound error) (repository.Inventory, error) {
	var doc inventoryDocument
	err := withRetry(ctx, r.logger, "inventories.find_one", func() error {
		return r.col.FindOne(ctx, filter).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.Inventory{}, notFound
		}
		return repository.Inventory{}, err
	}
	return doc.toModel(), nil
}

func decodeAll(ctx context.Context, cur *mongo.Cursor, sizeHint int) ([]repository.Inventory, error) {
	defer cur.Close(ctx)

	result := make([]repository.Inventory, 0, sizeHint)
	for cur.Next(ctx) {
		var doc inventoryDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
