// Package behavior implements the tasks and jobs entities run.
//
// A task owns an entity until the entity's decision table replaces it. Its
// Start and Finish bracket the activity and its job does the timed part.
// Jobs refer to entities by id and look them up in State on execution, so a
// job whose entity vanished simply does nothing.
package behavior
