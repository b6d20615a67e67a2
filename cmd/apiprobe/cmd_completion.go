package main

import (
	"flag"
	"fmt"
	"os"
)

func completionCmd() {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apiprobe completion <bash|zsh|fish>\n\n")
		fmt.Fprintf(os.Stderr, "Generate shell completion scripts.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  apiprobe completion bash > /usr/local/etc/bash_completion.d/apiprobe\n")
		fmt.Fprintf(os.Stderr, "  apiprobe completion zsh > \"${fpath[1]}/_apiprobe\"\n")
		fmt.Fprintf(os.Stderr, "  apiprobe completion fish > ~/.config/fish/completions/apiprobe.fish\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: shell name is required (bash, zsh, or fish)\n\n")
		fs.Usage()
		os.Exit(2)
	}

	switch shell := fs.Arg(0); shell {
	case "bash":
		fmt.Print(generateBashCompletion())
	case "zsh":
		fmt.Print(generateZshCompletion())
	case "fish":
		fmt.Print(generateFishCompletion())
	default:
		fatalf(2, "Error: unsupported shell %q (use bash, zsh, or fish)\n", shell)
	}
}

func generateBashCompletion() string {
	return `# bash completion for apiprobe                           -*- shell-script -*-

_apiprobe() {
    local cur prev words cword
    _init_completion || return

    local commands="run mock steps history validate init completion version help"

    local run_flags="--config --tags --format --concurrency --verbose --strict --mock --perf-save --perf-baseline --perf-threshold"
    local mock_flags="--port --latency --error-rate --cors-origin --subscription-key --log-level"
    local steps_flags="--limit"
    local history_flags="--db --limit"
    local validate_flags="--config"
    local init_flags="--output --base-url --with-env"

    local formats="text json junit pretty progress cucumber events"
    local history_commands="runs scenarios search requests clear"
    local shells="bash zsh fish"

    if [[ ${cword} -eq 1 ]]; then
        COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
        return
    fi

    local command="${words[1]}"

    case "${prev}" in
        --format)
            COMPREPLY=($(compgen -W "${formats}" -- "${cur}"))
            return
            ;;
        --config|--perf-save|--perf-baseline|--db|--output)
            _filedir
            return
            ;;
        --tags|--concurrency|--perf-threshold|--port|--latency|--error-rate|--cors-origin|--subscription-key|--log-level|--limit|--base-url)
            return
            ;;
    esac

    case "${command}" in
        run|validate)
            if [[ "${cur}" == -* ]]; then
                local flags_var="${command}_flags"
                COMPREPLY=($(compgen -W "${!flags_var}" -- "${cur}"))
            else
                COMPREPLY=($(compgen -f -X '!*.feature' -- "${cur}"))
                _filedir -d
            fi
            ;;
        mock)
            COMPREPLY=($(compgen -W "${mock_flags}" -- "${cur}"))
            ;;
        steps)
            COMPREPLY=($(compgen -W "${steps_flags}" -- "${cur}"))
            ;;
        history)
            if [[ "${cur}" == -* ]]; then
                COMPREPLY=($(compgen -W "${history_flags}" -- "${cur}"))
            else
                COMPREPLY=($(compgen -W "${history_commands}" -- "${cur}"))
            fi
            ;;
        init)
            COMPREPLY=($(compgen -W "${init_flags}" -- "${cur}"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "${shells}" -- "${cur}"))
            ;;
    esac
}

complete -F _apiprobe apiprobe
`
}

func generateZshCompletion() string {
	return `#compdef apiprobe

# zsh completion for apiprobe

_apiprobe() {
    local -a commands
    commands=(
        'run:Run feature files against the configured endpoints'
        'mock:Start the in-memory mock service'
        'steps:List or fuzzy-search step definitions'
        'history:Show recorded runs and scenario outcomes'
        'validate:Check configuration and step coverage'
        'init:Write a starter apiprobe.yaml'
        'completion:Generate shell completion scripts'
        'version:Print version information'
        'help:Show help message'
    )

    _arguments -C \
        '1:command:->command' \
        '*::arg:->args'

    case $state in
        command)
            _describe -t commands 'apiprobe commands' commands
            ;;
        args)
            case $words[1] in
                run)
                    _arguments \
                        '--config[Path to apiprobe.yaml]:file:_files' \
                        '--tags[Tag expression]:tags:' \
                        '--format[Output format]:format:(text json junit pretty progress cucumber events)' \
                        '--concurrency[Scenarios to run in parallel]:n:' \
                        '--verbose[Show response bodies of failed scenarios]' \
                        '--strict[Fail on pending or undefined steps]' \
                        '--mock[Run against an in-process mock service]' \
                        '--perf-save[Save timings as a baseline file]:file:_files' \
                        '--perf-baseline[Compare timings against a baseline file]:file:_files' \
                        '--perf-threshold[Regression threshold percentage]:threshold:' \
                        '*:feature file:_files -g "*.feature"'
                    ;;
                mock)
                    _arguments \
                        '--port[Port to listen on]:port:' \
                        '--latency[Artificial response latency]:duration:' \
                        '--error-rate[Random error rate]:rate:' \
                        '--cors-origin[Access-Control-Allow-Origin value]:origin:' \
                        '--subscription-key[Key accepted by /gettoken]:key:' \
                        '--log-level[Request log level]:level:(debug info warn error)'
                    ;;
                steps)
                    _arguments \
                        '--limit[Maximum matches]:n:' \
                        '*:query:'
                    ;;
                history)
                    _arguments \
                        '--db[History database]:file:_files' \
                        '--limit[Maximum rows]:n:' \
                        '1:subcommand:(runs scenarios search requests clear)'
                    ;;
                validate)
                    _arguments \
                        '--config[Path to apiprobe.yaml]:file:_files' \
                        '*:feature file:_files -g "*.feature"'
                    ;;
                init)
                    _arguments \
                        '--output[Output file path]:file:_files' \
                        '--base-url[Host for every endpoint]:url:' \
                        '--with-env[Also create a .env file]'
                    ;;
                completion)
                    _arguments \
                        '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_apiprobe "$@"
`
}

func generateFishCompletion() string {
	return `# fish completion for apiprobe

complete -c apiprobe -f

complete -c apiprobe -n '__fish_use_subcommand' -a run -d 'Run feature files against the configured endpoints'
complete -c apiprobe -n '__fish_use_subcommand' -a mock -d 'Start the in-memory mock service'
complete -c apiprobe -n '__fish_use_subcommand' -a steps -d 'List or fuzzy-search step definitions'
complete -c apiprobe -n '__fish_use_subcommand' -a history -d 'Show recorded runs and scenario outcomes'
complete -c apiprobe -n '__fish_use_subcommand' -a validate -d 'Check configuration and step coverage'
complete -c apiprobe -n '__fish_use_subcommand' -a init -d 'Write a starter apiprobe.yaml'
complete -c apiprobe -n '__fish_use_subcommand' -a completion -d 'Generate shell completion scripts'
complete -c apiprobe -n '__fish_use_subcommand' -a version -d 'Print version information'
complete -c apiprobe -n '__fish_use_subcommand' -a help -d 'Show help message'

# run flags
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l config -d 'Path to apiprobe.yaml' -rF
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l tags -d 'Tag expression' -r
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l format -d 'Output format' -ra 'text json junit pretty progress cucumber events'
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l concurrency -d 'Scenarios to run in parallel' -r
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l verbose -d 'Show response bodies of failed scenarios'
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l strict -d 'Fail on pending or undefined steps'
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l mock -d 'Run against an in-process mock service'
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l perf-save -d 'Save timings as a baseline file' -rF
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l perf-baseline -d 'Compare timings against a baseline file' -rF
complete -c apiprobe -n '__fish_seen_subcommand_from run' -l perf-threshold -d 'Regression threshold percentage' -r
complete -c apiprobe -n '__fish_seen_subcommand_from run' -F

# mock flags
complete -c apiprobe -n '__fish_seen_subcommand_from mock' -l port -d 'Port to listen on' -r
complete -c apiprobe -n '__fish_seen_subcommand_from mock' -l latency -d 'Artificial response latency' -r
complete -c apiprobe -n '__fish_seen_subcommand_from mock' -l error-rate -d 'Random error rate' -r
complete -c apiprobe -n '__fish_seen_subcommand_from mock' -l cors-origin -d 'Access-Control-Allow-Origin value' -r
complete -c apiprobe -n '__fish_seen_subcommand_from mock' -l subscription-key -d 'Key accepted by /gettoken' -r
complete -c apiprobe -n '__fish_seen_subcommand_from mock' -l log-level -d 'Request log level' -ra 'debug info warn error'

# steps, history, validate, init
complete -c apiprobe -n '__fish_seen_subcommand_from steps' -l limit -d 'Maximum matches' -r
complete -c apiprobe -n '__fish_seen_subcommand_from history' -l db -d 'History database' -rF
complete -c apiprobe -n '__fish_seen_subcommand_from history' -l limit -d 'Maximum rows' -r
complete -c apiprobe -n '__fish_seen_subcommand_from history' -a 'runs scenarios search requests clear'
complete -c apiprobe -n '__fish_seen_subcommand_from validate' -l config -d 'Path to apiprobe.yaml' -rF
complete -c apiprobe -n '__fish_seen_subcommand_from validate' -F
complete -c apiprobe -n '__fish_seen_subcommand_from init' -l output -d 'Output file path' -rF
complete -c apiprobe -n '__fish_seen_subcommand_from init' -l base-url -d 'Host for every endpoint' -r
complete -c apiprobe -n '__fish_seen_subcommand_from init' -l with-env -d 'Also create a .env file'

complete -c apiprobe -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish' -d 'Shell type'
`
}
