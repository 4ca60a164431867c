package db

import (
	"encoding/json"
	"sort"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/advisory"
)

// PutAdvisory stores an advisory under advisories/<gem>/<id>.
func (dbc Config) PutAdvisory(tx *bolt.Tx, gem, id string, adv interface{}) error {
	root, err := tx.CreateBucketIfNotExists([]byte(advisoryBucket))
	if err != nil {
		return xerrors.Errorf("failed to create a bucket: %w", err)
	}
	return dbc.put(root, gem, id, adv)
}

func (dbc Config) ForEachAdvisory(gem string) (map[string][]byte, error) {
	return dbc.forEach(advisoryBucket, gem)
}

// GetAdvisories returns the advisories of a gem ordered by id.
func (dbc Config) GetAdvisories(gem string) ([]advisory.Advisory, error) {
	values, err := dbc.ForEachAdvisory(gem)
	if err != nil {
		return nil, xerrors.Errorf("error in advisory foreach: %w", err)
	}

	var advisories []advisory.Advisory
	for id, v := range values {
		var adv advisory.Advisory
		if err = json.Unmarshal(v, &adv); err != nil {
			return nil, xerrors.Errorf("failed to unmarshal advisory %s: %w", id, err)
		}
		if adv.ID == "" {
			adv.ID = id
		}
		if adv.Gem == "" {
			adv.Gem = gem
		}
		advisories = append(advisories, adv)
	}
	sort.Slice(advisories, func(i, j int) bool {
		return advisories[i].ID < advisories[j].ID
	})
	return advisories, nil
}
