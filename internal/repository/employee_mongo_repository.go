package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/personnel-service/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const employeeCollection = "employees"

// MongoEmployeeRepository stores employee records as documents keyed by _id.
type MongoEmployeeRepository struct {
	coll *mongo.Collection
}

func NewMongoEmployeeRepository(db *mongo.Database) *MongoEmployeeRepository {
	return &MongoEmployeeRepository{coll: db.Collection(employeeCollection)}
}

func (r *MongoEmployeeRepository) FindAll(ctx context.Context) ([]models.EmployeeRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	records := []models.EmployeeRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode employees: %w", err)
	}
	return records, nil
}

func (r *MongoEmployeeRepository) FindByID(ctx context.Context, id string) (*models.EmployeeRecord, error) {
	var record models.EmployeeRecord
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &record, nil
}

func (r *MongoEmployeeRepository) Create(ctx context.Context, details models.PersonalDetails) (*models.EmployeeRecord, error) {
	record, err := newRecord(details)
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return record, nil
}

func (r *MongoEmployeeRepository) UpdateByID(ctx context.Context, id string, changes models.EmployeeChanges) (*models.EmployeeRecord, error) {
	set := changesToSet(changes)
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC().Truncate(time.Millisecond)})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var record models.EmployeeRecord
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	return &record, nil
}

func (r *MongoEmployeeRepository) DeleteByID(ctx context.Context, id string) (*models.EmployeeRecord, error) {
	var record models.EmployeeRecord
	err := r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete employee: %w", err)
	}
	return &record, nil
}

func changesToSet(c models.EmployeeChanges) bson.D {
	set := bson.D{}
	if c.Firstname != nil {
		set = append(set, bson.E{Key: "firstname", Value: *c.Firstname})
	}
	if c.Lastname != nil {
		set = append(set, bson.E{Key: "lastname", Value: *c.Lastname})
	}
	if c.Salary != nil {
		set = append(set, bson.E{Key: "salary", Value: *c.Salary})
	}
	if c.Address != nil {
		set = append(set, bson.E{Key: "address", Value: *c.Address})
	}
	if c.PhoneNumber != nil {
		set = append(set, bson.E{Key: "phoneNumber", Value: *c.PhoneNumber})
	}
	return set
}
