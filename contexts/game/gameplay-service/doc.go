// Package gameplayservice drives the in-game flows inside the game
// context: exile votes, the sheriff election with its sign-up window,
// per-channel countdowns and speech ordering.
//
// Voting itself is delegated to the poll engine behind the PollLauncher
// port; this module contributes the option sets, eligibility rules and the
// announcements, including the tie re-vote chain.
package gameplayservice
