// Package models defines the records kept by the LifeVault store and the
// shapes exchanged with the backup document.
package models

// Collection names one of the four record kinds held by the store.
type Collection string

const (
	CollectionTasks        Collection = "tasks"
	CollectionTransactions Collection = "transactions"
	CollectionContacts     Collection = "contacts"
	CollectionRecords      Collection = "records"
)

// Collections lists every collection in backup document order.
var Collections = []Collection{
	CollectionTasks,
	CollectionTransactions,
	CollectionContacts,
	CollectionRecords,
}

// Counts is the number of records held in each collection.
type Counts struct {
	Tasks        int `json:"tasks"`
	Transactions int `json:"transactions"`
	Contacts     int `json:"contacts"`
	Records      int `json:"records"`
}

func (c Counts) Total() int {
	return c.Tasks + c.Transactions + c.Contacts + c.Records
}
