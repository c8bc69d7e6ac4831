package chatcmder

// Converse exposes the read-answer loop to the external test package.
var Converse = converse
