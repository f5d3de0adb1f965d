package model

import "database/sql"

// User represents an application user record as stored in the
// `user` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// Fields:
//
//	ID            – primary key identifier of the user.
//	Email         – unique email address.
//	FirstName     – given name.
//	LastName      – family name (at most 64 characters).
//	PasswordHash  – bcrypt hashed password.
//	ImageFilename – stored profile image filename, null when no image is set.
//	AuthToken     – opaque session token, null while logged out.
type User struct {
	ID            int64          // user.id
	Email         string         // user.email
	FirstName     string         // user.first_name
	LastName      string         // user.last_name
	PasswordHash  string         // user.password
	ImageFilename sql.NullString // user.image_filename
	AuthToken     sql.NullString // user.auth_token
}
