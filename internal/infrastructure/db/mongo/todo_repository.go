package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// TodoRepository implements ports.TodoRepository using MongoDB.
type TodoRepository struct {
	col *mongo.Collection
}

func NewTodoRepository(db *mongo.Database) *TodoRepository {
	return &TodoRepository{col: db.Collection(collectionTodos)}
}

type mongoTodo struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Completed   bool      `bson:"completed"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d mongoTodo) toDomain() domain.Todo {
	return domain.Todo{
		ID:          d.ID,
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func ownedBy(id, userID string) bson.M {
	return bson.M{"_id": id, "user_id": userID}
}

func (r *TodoRepository) ListByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", mapError(err))
	}
	defer cur.Close(ctx)

	var docs []mongoTodo
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}

	out := make([]domain.Todo, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id, userID string) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d mongoTodo
	if err := r.col.FindOne(ctx, ownedBy(id, userID)).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", mapError(err))
	}
	t := d.toDomain()
	return &t, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoTodo{
		ID:          todo.ID,
		UserID:      todo.UserID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		CreatedAt:   todo.CreatedAt.UTC(),
		UpdatedAt:   todo.UpdatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert todo: %w", mapError(err))
	}
	return nil
}

// Update applies the patch with a single find-and-modify so the returned
// document reflects the write.
func (r *TodoRepository) Update(ctx context.Context, id, userID string, patch domain.TodoPatch, updatedAt time.Time) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": updatedAt.UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d mongoTodo
	err := r.col.FindOneAndUpdate(ctx, ownedBy(id, userID), bson.M{"$set": set}, opts).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("update todo: %w", mapError(err))
	}
	t := d.toDomain()
	return &t, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, ownedBy(id, userID))
	if err != nil {
		return fmt.Errorf("delete todo: %w", mapError(err))
	}
	if res.DeletedCount == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}
