package services

import (
	"context"
	"fmt"
	"time"

	"briefbase/internal/database"
	"briefbase/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PersonStore handles MongoDB CRUD for people and project rosters
type PersonStore struct {
	people        *mongo.Collection
	projectPeople *mongo.Collection
}

// NewPersonStore creates a new person store
func NewPersonStore(mongodb *database.MongoDB) *PersonStore {
	return &PersonStore{
		people:        mongodb.Collection(database.CollectionPeople),
		projectPeople: mongodb.Collection(database.CollectionProjectPeople),
	}
}

// ResolveOrCreate finds a person by email (or by exact name when no email is
// given) and creates one if absent. Returns the person's ID.
func (s *PersonStore) ResolveOrCreate(ctx context.Context, person *models.Person) (primitive.ObjectID, error) {
	filter := bson.M{"name": person.Name}
	if person.Email != "" {
		filter = bson.M{"email": person.Email}
	}

	var existing models.Person
	err := s.people.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		return existing.ID, nil
	}
	if err != mongo.ErrNoDocuments {
		return primitive.NilObjectID, fmt.Errorf("failed to look up person: %w", err)
	}

	person.CreatedAt = time.Now()
	result, err := s.people.InsertOne(ctx, person)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create person: %w", err)
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

// AddToProject links a person to a project, ignoring duplicates
func (s *PersonStore) AddToProject(ctx context.Context, link *models.ProjectPerson) error {
	count, err := s.projectPeople.CountDocuments(ctx, bson.M{
		"projectId": link.ProjectID,
		"personId":  link.PersonID,
	})
	if err != nil {
		return fmt.Errorf("failed to check project membership: %w", err)
	}
	if count > 0 {
		return nil
	}

	link.CreatedAt = time.Now()
	if _, err := s.projectPeople.InsertOne(ctx, link); err != nil {
		return fmt.Errorf("failed to add person to project: %w", err)
	}
	return nil
}

// ListRoster returns the project roster for prompt building: every linked
// person with their project-scoped role.
func (s *PersonStore) ListRoster(ctx context.Context, projectID primitive.ObjectID) ([]models.RosterEntry, error) {
	cursor, err := s.projectPeople.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list project people: %w", err)
	}
	defer cursor.Close(ctx)

	var links []models.ProjectPerson
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode project people: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(links))
	roleByPerson := make(map[primitive.ObjectID]string, len(links))
	for _, link := range links {
		ids = append(ids, link.PersonID)
		roleByPerson[link.PersonID] = link.Role
	}

	peopleCursor, err := s.people.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get people: %w", err)
	}
	defer peopleCursor.Close(ctx)

	var people []models.Person
	if err := peopleCursor.All(ctx, &people); err != nil {
		return nil, fmt.Errorf("failed to decode people: %w", err)
	}

	roster := make([]models.RosterEntry, 0, len(people))
	for _, p := range people {
		role := roleByPerson[p.ID]
		if role == "" {
			role = p.Role
		}
		roster = append(roster, models.RosterEntry{
			Name:         p.Name,
			Email:        p.Email,
			Organization: p.Organization,
			Role:         role,
		})
	}
	return roster, nil
}
