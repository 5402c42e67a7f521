package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores settings in their own collection, one document per user.
type Mongo struct {
	Collection *mongo.Collection
}

func (m *Mongo) Get(ctx context.Context, userID string) (UserSettings, error) {
	us := Defaults(userID)
	err := m.Collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&us)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Defaults(userID), nil
	}
	if err != nil {
		return UserSettings{}, fmt.Errorf("load settings %s: %w", userID, err)
	}
	if us.NoticesSeen == nil {
		us.NoticesSeen = map[string]time.Time{}
	}
	if us.Fonts == nil {
		us.Fonts = []string{}
	}
	return us, nil
}

// upsert merges set into the user's document, seeding defaults on first write.
func (m *Mongo) upsert(ctx context.Context, userID string, update bson.M) error {
	d := Defaults(userID)
	onInsert := bson.M{}
	seed := bson.M{"theme": d.Theme, "language": d.Language, "time_zone": d.TimeZone, "default_export": d.DefaultExport}
	set, _ := update["$set"].(bson.M)
	for k, v := range seed {
		if _, ok := set[k]; !ok {
			onInsert[k] = v
		}
	}
	if len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}
	_, err := m.Collection.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update settings %s: %w", userID, err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, userID, setting string, value any) (UserSettings, error) {
	v, err := validate(setting, value)
	if err != nil {
		return UserSettings{}, err
	}
	err = m.upsert(ctx, userID, bson.M{"$set": bson.M{setting: v, "updated_at": time.Now().UTC()}})
	if err != nil {
		return UserSettings{}, err
	}
	return m.Get(ctx, userID)
}

func (m *Mongo) AddFont(ctx context.Context, userID, font string) error {
	name := fontName(font)
	if name == "" {
		return nil
	}
	return m.upsert(ctx, userID, bson.M{
		"$addToSet": bson.M{"fonts": name},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (m *Mongo) MarkSeen(ctx context.Context, userID, notice string, at time.Time) error {
	if err := checkNotice(notice); err != nil {
		return err
	}
	return m.upsert(ctx, userID, bson.M{"$set": bson.M{"notices_seen." + notice: at.UTC()}})
}
