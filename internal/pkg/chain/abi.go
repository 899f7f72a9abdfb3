package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const houseABIJSON = `[
	{"type":"function","name":"play","stateMutability":"payable",
	 "inputs":[{"name":"_playerMove","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"GameResult","anonymous":false,"inputs":[
		{"name":"player","type":"address","indexed":false},
		{"name":"playerMove","type":"uint8","indexed":false},
		{"name":"computerMove","type":"uint8","indexed":false},
		{"name":"result","type":"string","indexed":false},
		{"name":"payout","type":"uint256","indexed":false}]}
]`

// The output names of games(uint256) are local labels; the contract returns an unnamed tuple.
const arenaABIJSON = `[
	{"type":"function","name":"createGame","stateMutability":"payable",
	 "inputs":[{"name":"_move","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"joinGame","stateMutability":"payable",
	 "inputs":[{"name":"_gameId","type":"uint256"},{"name":"_move","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"games","stateMutability":"view",
	 "inputs":[{"name":"","type":"uint256"}],
	 "outputs":[
		{"name":"player1","type":"address"},
		{"name":"player2","type":"address"},
		{"name":"stake","type":"uint256"},
		{"name":"move1","type":"uint8"},
		{"name":"move2","type":"uint8"},
		{"name":"started","type":"bool"},
		{"name":"finished","type":"bool"},
		{"name":"winner","type":"address"}]},
	{"type":"event","name":"GameCreated","anonymous":false,"inputs":[
		{"name":"gameId","type":"uint256","indexed":false},
		{"name":"player1","type":"address","indexed":false},
		{"name":"bet","type":"uint256","indexed":false}]},
	{"type":"event","name":"PlayerJoined","anonymous":false,"inputs":[
		{"name":"gameId","type":"uint256","indexed":false},
		{"name":"player2","type":"address","indexed":false}]},
	{"type":"event","name":"GameFinished","anonymous":false,"inputs":[
		{"name":"gameId","type":"uint256","indexed":false},
		{"name":"winner","type":"address","indexed":false},
		{"name":"p1Move","type":"uint8","indexed":false},
		{"name":"p2Move","type":"uint8","indexed":false}]}
]`

var (
	HouseABI = mustParseABI("house", houseABIJSON)
	ArenaABI = mustParseABI("arena", arenaABIJSON)
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s abi: %v", name, err))
	}

	return parsed
}
