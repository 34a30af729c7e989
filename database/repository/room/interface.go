package roomRepo

import (
	"context"
	"log"

	"innkeep/database"
	"innkeep/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// RoomRepository exposes the read side of the room catalog the reservation
// flow needs. Catalog administration lives elsewhere.
type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*models.Room, error)
	// ListByType returns rooms of the given type, excluding rooms flagged
	// under maintenance. An empty type matches all rooms.
	ListByType(ctx context.Context, roomType string) ([]models.Room, error)
}

type MongoRoomRepo struct {
	coll *mongo.Collection
}

// NewMongoRoomRepo returns a new RoomRepository instance using MongoDB.
func NewMongoRoomRepo(dbName string) RoomRepository {
	db := database.MongoClient.Database(dbName)
	repo := &MongoRoomRepo{coll: db.Collection("rooms")}
	if err := repo.ensureIndexes(); err != nil {
		log.Fatalf("room repo: %v", err)
	}
	return repo
}
