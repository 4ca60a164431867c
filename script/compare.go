package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"

	"github.com/samber/lo"
	bolt "go.etcd.io/bbolt"

	"github.com/aquasecurity/gem-audit/pkg/set"
)

const advisoryBucket = "advisories"

var (
	oldFile = flag.String("old_file", "old/gem-audit.db", "old exported DB file")
	newFile = flag.String("new_file", "gem-audit.db", "new exported DB file")
)

// compare prints the advisories that were added, removed or changed between two exports.
func main() {
	flag.Parse()
	oldAdvs := readFile(*oldFile)
	newAdvs := readFile(*newFile)

	log.Printf("=== got %d advisories from old DB and %d from new DB ===", len(oldAdvs), len(newAdvs))

	keys := set.NewOrdered(lo.Keys(oldAdvs)...)
	keys.Append(lo.Keys(newAdvs)...)
	for _, k := range keys.Values() {
		oldAdv, inOld := oldAdvs[k]
		newAdv, inNew := newAdvs[k]
		switch {
		case !inNew:
			log.Printf("advisory %s was removed", k)
		case !inOld:
			log.Printf("advisory %s was added", k)
		case !jsonEqual(oldAdv, newAdv):
			log.Printf("advisory %s is different", k)
		}
	}
}

func jsonEqual(a, b []byte) bool {
	var va, vb interface{}
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return bytes.Equal(a, b)
	}
	ca, _ := json.Marshal(va)
	cb, _ := json.Marshal(vb)
	return bytes.Equal(ca, cb)
}

func readFile(file string) map[string][]byte {
	advisories := make(map[string][]byte)
	db, err := bolt.Open(file, 0o600, &bolt.Options{ReadOnly: true})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(advisoryBucket))
		if root == nil {
			return nil
		}
		return root.ForEach(func(gem, _ []byte) error {
			nested := root.Bucket(gem)
			if nested == nil {
				return nil
			}
			return nested.ForEach(func(id, v []byte) error {
				advisories[string(gem)+"/"+string(id)] = append([]byte(nil), v...)
				return nil
			})
		})
	})
	if err != nil {
		log.Fatal(err)
	}
	return advisories
}
