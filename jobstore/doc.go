// Package jobstore provides the durable, crash-consistent record of all
// pipeline work units, backed by an embedded SQLite database through GORM.
//
// Every unit of work (an audio chunk, a derived summary task) is an
// independent job, giving the pipeline natural checkpoints: a crash affects
// only the in-flight job. Each claim/complete/fail is one fine-grained
// transaction; WAL journal mode keeps producers and consumers from
// serializing on a store-wide lock.
//
// Status moves only forward through pending -> processing ->
// completed|failed. The two backward edges (requeue, abandon) are explicit
// operator actions and are logged distinctly.
package jobstore
