package api

// Schema is the GraphQL schema served by Handler.
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

type User {
	id: ID!
	name: String!
	email: String!
	isAdmin: Boolean!
	createdAt: String!
}

type UserAuthenticationWithPasswordSuccess {
	sessionToken: String!
	item: User!
}

type UserAuthenticationWithPasswordFailure {
	message: String!
}

union UserAuthenticationWithPasswordResult = UserAuthenticationWithPasswordSuccess | UserAuthenticationWithPasswordFailure

input CreateInitialUserInput {
	name: String!
	email: String!
	password: String!
}

type Query {
	authenticatedItem: User
}

type Mutation {
	authenticateUserWithPassword(email: String!, password: String!): UserAuthenticationWithPasswordResult
	createInitialUser(data: CreateInitialUserInput!): UserAuthenticationWithPasswordSuccess!
	endSession: Boolean!
}
`
